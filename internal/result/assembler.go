// Package result reassembles ordered per-circuit expectation values from the
// heterogeneously-ordered workflow result artifact.
package result

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Artifact is the decoded workflow result payload: a mapping from an opaque
// per-step key to a record carrying at least a stepName and an
// expval.list structure.
type Artifact map[string]any

// identityValue is the analytically-known expectation value of the identity
// observable; such observables are never submitted to the platform.
const identityValue = 1.0

// FormatError reports a structural mismatch in the artifact. Callers wrap it
// into the user-facing error together with a fresh status query.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unexpected result structure: " + e.Reason
}

// ExtractSingle extracts the value list of the sole step in the artifact.
func ExtractSingle(artifact Artifact) ([]float64, error) {
	if len(artifact) != 1 {
		return nil, &FormatError{Reason: fmt.Sprintf("expected one step entry, got %d", len(artifact))}
	}
	for key, entry := range artifact {
		values, _, err := stepValues(key, entry)
		return values, err
	}
	return nil, &FormatError{Reason: "empty artifact"} // unreachable
}

// ExtractMulti extracts the value list of every step, ordered by the numeric
// suffix of the step name. The platform may complete parallel steps in any
// order, so artifact iteration order carries no meaning; sorting by the raw
// name string would also misorder suffixes past 9, hence the numeric parse.
func ExtractMulti(artifact Artifact) ([][]float64, error) {
	type stepResult struct {
		index  int
		values []float64
	}

	steps := make([]stepResult, 0, len(artifact))
	for key, entry := range artifact {
		values, name, err := stepValues(key, entry)
		if err != nil {
			return nil, err
		}
		index, err := stepIndex(name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, stepResult{index: index, values: values})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].index < steps[j].index })

	results := make([][]float64, len(steps))
	for i, s := range steps {
		results[i] = s.values
	}
	return results, nil
}

// InsertIdentity splices the identity expectation value into values at each
// of the recorded positions. Positions are insertion points into the growing
// list and must be applied in ascending order, so that earlier insertions do
// not shift later ones.
func InsertIdentity(values []float64, indices []int) []float64 {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	out := append([]float64(nil), values...)
	for _, idx := range sorted {
		if idx > len(out) {
			idx = len(out)
		}
		out = append(out, 0)
		copy(out[idx+1:], out[idx:])
		out[idx] = identityValue
	}
	return out
}

// InsertIdentityBatch restores identity-only results into batch output.
// emptyObs lists the circuit positions whose entire observable list was the
// identity (these produced no step at all); identityIndices maps each final
// circuit position to the identity positions within its observable list.
func InsertIdentityBatch(results [][]float64, emptyObs []int, identityIndices map[int][]int) [][]float64 {
	out := append([][]float64(nil), results...)

	sorted := append([]int(nil), emptyObs...)
	sort.Ints(sorted)
	for _, idx := range sorted {
		if idx > len(out) {
			idx = len(out)
		}
		out = append(out, nil)
		copy(out[idx+1:], out[idx:])
		out[idx] = []float64{}
	}

	for listIdx, indices := range identityIndices {
		if listIdx < 0 || listIdx >= len(out) {
			continue
		}
		out[listIdx] = InsertIdentity(out[listIdx], indices)
	}
	return out
}

// stepValues digs the expval value list out of one artifact entry, reporting
// any structural mismatch as a FormatError.
func stepValues(key string, entry any) (values []float64, stepName string, err error) {
	record, ok := entry.(map[string]any)
	if !ok {
		return nil, "", &FormatError{Reason: fmt.Sprintf("step entry %q is not a mapping", key)}
	}

	stepName, _ = record["stepName"].(string)

	expval, ok := record["expval"].(map[string]any)
	if !ok {
		return nil, "", &FormatError{Reason: fmt.Sprintf("step entry %q has no expval record", key)}
	}
	rawList, ok := expval["list"].([]any)
	if !ok {
		return nil, "", &FormatError{Reason: fmt.Sprintf("step entry %q has no expval list", key)}
	}

	values = make([]float64, len(rawList))
	for i, raw := range rawList {
		v, ok := raw.(float64)
		if !ok {
			return nil, "", &FormatError{Reason: fmt.Sprintf("step entry %q value %d is not a number", key, i)}
		}
		values[i] = v
	}
	return values, stepName, nil
}

// stepIndex parses the numeric suffix that step names carry after their
// final dash.
func stepIndex(name string) (int, error) {
	dash := strings.LastIndex(name, "-")
	if dash < 0 || dash == len(name)-1 {
		return 0, &FormatError{Reason: fmt.Sprintf("step name %q has no numeric suffix", name)}
	}
	index, err := strconv.Atoi(name[dash+1:])
	if err != nil {
		return 0, &FormatError{Reason: fmt.Sprintf("step name %q has no numeric suffix", name)}
	}
	return index, nil
}
