package workflow

import (
	"fmt"
	"strconv"

	"github.com/me/goqe/pkg/model"
)

// Component identifies a supported backend component on the platform. The
// set is closed: looking up anything else fails with a ConfigurationError
// rather than silently producing an empty import.
type Component string

const (
	ComponentForest Component = "qe-forest"
	ComponentQiskit Component = "qe-qiskit"
	ComponentQulacs Component = "qe-qulacs"
)

// ImportSpec returns the git import descriptor for the component.
func (c Component) ImportSpec() (Import, error) {
	switch c {
	case ComponentForest, ComponentQiskit, ComponentQulacs:
		return Import{
			Name: string(c),
			Type: "git",
			Parameters: ImportParameters{
				Repository: fmt.Sprintf("git@github.com:zapatacomputing/%s.git", c),
				Branch:     "dev",
			},
		}, nil
	default:
		return Import{}, &model.ConfigurationError{Component: string(c)}
	}
}

// baseImports are the modules every expectation-value workflow needs: the
// step implementation itself plus the platform's circuit and operator
// libraries. The backend component import is appended per document.
func baseImports() []Import {
	return []Import{
		{
			Name: "goqe",
			Type: "git",
			Parameters: ImportParameters{
				Repository: "git@github.com:me/goqe.git",
				Branch:     "main",
			},
		},
		{
			Name: "z-quantum-core",
			Type: "git",
			Parameters: ImportParameters{
				Repository: "git@github.com:zapatacomputing/z-quantum-core.git",
				Branch:     "dev",
			},
		},
		{
			Name: "qe-openfermion",
			Type: "git",
			Parameters: ImportParameters{
				Repository: "git@github.com:zapatacomputing/qe-openfermion.git",
				Branch:     "dev",
			},
		},
	}
}

// newStep returns a fresh expectation-value step skeleton with the given
// index suffixed to its name.
func newStep(index int) Step {
	return Step{
		Name: StepNamePrefix + strconv.Itoa(index),
		Config: StepConfig{
			Runtime: Runtime{
				Language: "python3",
				Imports:  []string{"goqe", "z-quantum-core", "qe-openfermion"},
				Parameters: RuntimeParameters{
					File:     "goqe/steps/expval.py",
					Function: "run_circuit_and_get_expval",
				},
			},
		},
		Outputs: []Output{
			{Name: "expval", Type: "expval", Path: "/app/expval.json"},
		},
	}
}

// BuildExpval assembles the workflow document computing expectation values
// for the given (circuit, operator-list) pairs on the named backend
// component. circuits and operators must be equal-length; pair k becomes
// step k. backendSpecs is the serialized backend specification shared by all
// steps. If resources is non-nil it is attached identically to every step.
//
// The builder has no side effects and is deterministic for identical inputs.
func BuildExpval(component Component, backendSpecs string, circuits, operators []string, resources *Resources) (*Document, error) {
	backendImport, err := component.ImportSpec()
	if err != nil {
		return nil, err
	}

	if len(circuits) != len(operators) {
		return nil, fmt.Errorf("circuit and operator lists must have equal length: %d != %d",
			len(circuits), len(operators))
	}

	doc := &Document{
		APIVersion: APIVersion,
		Name:       "expval",
		Imports:    append(baseImports(), backendImport),
		Types:      []string{"circuit", "expval"},
	}

	for i := range circuits {
		step := newStep(i)
		step.Config.Resources = resources
		step.Config.Runtime.Imports = append(step.Config.Runtime.Imports, string(component))
		step.Inputs = []StepInput{
			{Key: "backend_specs", Value: backendSpecs},
			{Key: "operators", Value: operators[i]},
			{Key: "circuit", Value: circuits[i]},
		}
		doc.Steps = append(doc.Steps, step)
	}

	return doc, nil
}
