// Package observable models measurable operators as sums of Pauli terms and
// serializes them to the OpenFermion operator-string wire format consumed by
// the platform's expectation-value step.
package observable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Axis is a Pauli measurement axis.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
)

// Factor is a single Pauli operator acting on one wire.
type Factor struct {
	Axis Axis
	Wire int
}

// Term is one addend of an observable: a real coefficient times a tensor
// product of Pauli factors. A term with no factors is the identity.
type Term struct {
	Coeff   float64
	Factors []Factor
}

// Observable is a sum of Pauli terms.
type Observable struct {
	Terms []Term
}

// Identity returns the identity observable. Its expectation value is exactly
// 1 on any state, so it is never submitted for remote computation.
func Identity() Observable {
	return Observable{Terms: []Term{{Coeff: 1}}}
}

// Single returns a one-factor observable with unit coefficient.
func Single(axis Axis, wire int) Observable {
	return Observable{Terms: []Term{{Coeff: 1, Factors: []Factor{{Axis: axis, Wire: wire}}}}}
}

// Tensor returns a single-term observable with unit coefficient over the
// given factors.
func Tensor(factors ...Factor) Observable {
	return Observable{Terms: []Term{{Coeff: 1, Factors: factors}}}
}

// Sum returns an observable made of the given terms.
func Sum(terms ...Term) Observable {
	return Observable{Terms: terms}
}

// IsIdentity reports whether every term of the observable is the identity.
func (o Observable) IsIdentity() bool {
	for _, t := range o.Terms {
		if len(t.Factors) > 0 {
			return false
		}
	}
	return true
}

// Wires returns the sorted set of wires the observable acts on.
func (o Observable) Wires() []int {
	seen := map[int]bool{}
	for _, t := range o.Terms {
		for _, f := range t.Factors {
			seen[f.Wire] = true
		}
	}
	wires := make([]int, 0, len(seen))
	for w := range seen {
		wires = append(wires, w)
	}
	sort.Ints(wires)
	return wires
}

// QubitOperatorString serializes the observable in the OpenFermion
// QubitOperator string form, e.g. "0.5 [X0 Z2] + 0.5 [Z0]". An identity term
// renders an empty bracket: "1 []".
func (o Observable) QubitOperatorString() string {
	parts := make([]string, 0, len(o.Terms))
	for _, t := range o.Terms {
		factors := make([]string, 0, len(t.Factors))
		for _, f := range t.Factors {
			factors = append(factors, fmt.Sprintf("%s%d", f.Axis, f.Wire))
		}
		parts = append(parts, fmt.Sprintf("%s [%s]", formatCoeff(t.Coeff), strings.Join(factors, " ")))
	}
	return strings.Join(parts, " + ")
}

// PauliZString builds the operator string measuring PauliZ on each of the
// given wires, e.g. "[Z0 Z1 Z2]". It is used in sampling mode, where the
// serialized circuit already contains the diagonalizing rotations and the
// result is accumulated as an Ising-operator expectation. No coefficient is
// emitted.
func PauliZString(wires []int) string {
	factors := make([]string, len(wires))
	for i, w := range wires {
		factors[i] = fmt.Sprintf("Z%d", w)
	}
	return "[" + strings.Join(factors, " ") + "]"
}

func formatCoeff(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}
