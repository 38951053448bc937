// Package workflow builds and serializes the declarative workflow documents
// submitted to the Quantum Engine platform.
package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// APIVersion is the workflow schema version the platform expects.
const APIVersion = "io.orquestra.workflow/1.0.0"

// StepNamePrefix is the common prefix of every expectation-value step. The
// numeric suffix after it encodes the step's submission index and is used to
// restore ordering after parallel remote execution.
const StepNamePrefix = "run-circuit-and-get-expval-"

// Document is one submittable workflow. Field order matters: it fixes the
// top-level key order of the serialized YAML, which the platform parses
// positionally in places.
type Document struct {
	APIVersion string   `yaml:"apiVersion"`
	Name       string   `yaml:"name"`
	Imports    []Import `yaml:"imports"`
	Steps      []Step   `yaml:"steps"`
	Types      []string `yaml:"types"`
}

// Import is a named external-module reference resolved by the platform.
type Import struct {
	Name       string           `yaml:"name"`
	Type       string           `yaml:"type"`
	Parameters ImportParameters `yaml:"parameters"`
}

// ImportParameters locate the source of an import.
type ImportParameters struct {
	Repository string `yaml:"repository"`
	Branch     string `yaml:"branch"`
}

// Step is one unit of remote computation. Outputs precede inputs in the
// serialized form; that insertion order is part of the wire contract.
type Step struct {
	Name    string      `yaml:"name"`
	Config  StepConfig  `yaml:"config"`
	Outputs []Output    `yaml:"outputs"`
	Inputs  []StepInput `yaml:"inputs"`
}

// StepConfig carries the runtime description and optional resource hints.
type StepConfig struct {
	Runtime   Runtime    `yaml:"runtime"`
	Resources *Resources `yaml:"resources,omitempty"`
}

// Runtime describes the language environment and entry point of a step.
type Runtime struct {
	Language   string            `yaml:"language"`
	Imports    []string          `yaml:"imports"`
	Parameters RuntimeParameters `yaml:"parameters"`
}

// RuntimeParameters name the file and function the platform invokes.
type RuntimeParameters struct {
	File     string `yaml:"file"`
	Function string `yaml:"function"`
}

// Resources are opaque compute quantities passed through to the platform
// scheduler.
type Resources struct {
	CPU    string `yaml:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty"`
	Disk   string `yaml:"disk,omitempty"`
}

// Output describes the artifact a step produces.
type Output struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// StepInput is a single-key input mapping with a declared type tag, e.g.
// {backend_specs: "...", type: string}. The remote entry point parses step
// inputs positionally, so their order within a step is fixed.
type StepInput struct {
	Key   string
	Value string
}

// MarshalYAML emits the input as {<key>: <value>, type: string}.
func (in StepInput) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarNode(in.Key), scalarNode(in.Value),
			scalarNode("type"), scalarNode("string"),
		},
	}, nil
}

// UnmarshalYAML reads the single non-type key of the mapping.
func (in *StepInput) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("step input: expected mapping, got %v", node.Kind)
	}
	found := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key == "type" {
			continue
		}
		in.Key = key
		in.Value = node.Content[i+1].Value
		found = true
	}
	if !found {
		return fmt.Errorf("step input: no value key found")
	}
	return nil
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// Marshal serializes the document to the order-preserving YAML wire format.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Parse decodes a serialized workflow document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse workflow YAML: %w", err)
	}
	return &d, nil
}
