package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func stepEntry(index int, values ...float64) map[string]any {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	return map[string]any{
		"expval": map[string]any{
			"list":   list,
			"schema": "test",
		},
		"stepId":   "expval",
		"stepName": fmt.Sprintf("run-circuit-and-get-expval-%d", index),
	}
}

func TestExtractSingle(t *testing.T) {
	artifact := Artifact{
		"expval-id000": stepEntry(0, 0.777506938122745),
	}
	values, err := ExtractSingle(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0.777506938122745}; !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExtractSingleFromJSON(t *testing.T) {
	raw := `{"k": {"stepName": "s-0", "expval": {"list": [0.5]}}}`
	var artifact Artifact
	if err := json.Unmarshal([]byte(raw), &artifact); err != nil {
		t.Fatal(err)
	}
	values, err := ExtractSingle(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0.5}; !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestExtractSingleFormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		artifact Artifact
	}{
		{"empty artifact", Artifact{}},
		{"two entries", Artifact{"a": stepEntry(0, 1), "b": stepEntry(1, 2)}},
		{"entry not mapping", Artifact{"a": "oops"}},
		{"missing expval", Artifact{"a": map[string]any{"stepName": "s-0"}}},
		{"missing list", Artifact{"a": map[string]any{"expval": map[string]any{}}}},
		{"non numeric value", Artifact{"a": map[string]any{
			"expval": map[string]any{"list": []any{"x"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSingle(tt.artifact)
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
		})
	}
}

func TestExtractMultiReorders(t *testing.T) {
	// Artifact insertion order deliberately scrambled relative to step
	// indices.
	artifact := Artifact{
		"expval-id2312": stepEntry(2, 1.234),
		"expval-id000":  stepEntry(0, 0.777506938122745),
		"expval-id111":  stepEntry(1, 13.321),
	}
	results, err := ExtractMulti(artifact)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{0.777506938122745}, {13.321}, {1.234}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
}

func TestExtractMultiNumericSuffixOrder(t *testing.T) {
	// Lexicographic ordering of names would put suffix 10 and 11 before 2;
	// the assembler must sort on the parsed integer.
	artifact := Artifact{}
	for i := 0; i < 12; i++ {
		artifact[fmt.Sprintf("key-%c", 'a'+i)] = stepEntry(i, float64(i))
	}
	results, err := ExtractMulti(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 12 {
		t.Fatalf("got %d results, want 12", len(results))
	}
	for i, values := range results {
		if len(values) != 1 || values[0] != float64(i) {
			t.Errorf("results[%d] = %v, want [%d]", i, values, i)
		}
	}
}

func TestExtractMultiBadStepName(t *testing.T) {
	artifact := Artifact{
		"a": map[string]any{
			"stepName": "no-suffix-here-",
			"expval":   map[string]any{"list": []any{1.0}},
		},
	}
	_, err := ExtractMulti(artifact)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestInsertIdentity(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		indices []int
		want    []float64
	}{
		{"no identities", []float64{0.1, 0.2}, nil, []float64{0.1, 0.2}},
		{"leading", []float64{0.1, 0.2}, []int{0}, []float64{1, 0.1, 0.2}},
		{"trailing", []float64{0.1, 0.2}, []int{2}, []float64{0.1, 0.2, 1}},
		{"interleaved", []float64{0.1, 0.2}, []int{1, 3}, []float64{0.1, 1, 0.2, 1}},
		{"all identity", nil, []int{0, 1, 2}, []float64{1, 1, 1}},
		{"unsorted input indices", []float64{0.5}, []int{1, 0}, []float64{1, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InsertIdentity(tt.values, tt.indices)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InsertIdentity(%v, %v) = %v, want %v",
					tt.values, tt.indices, got, tt.want)
			}
		})
	}
}

func TestInsertIdentityLengthInvariant(t *testing.T) {
	// For n observables with identities at positions I, remote computation
	// returns n-|I| values and reassembly must produce a length-n list with
	// 1 at every position in I.
	n := 7
	identity := []int{0, 3, 6}
	remote := []float64{0.1, 0.2, 0.3, 0.4}

	out := InsertIdentity(remote, identity)
	if len(out) != n {
		t.Fatalf("len = %d, want %d", len(out), n)
	}
	remoteIdx := 0
	isIdentity := map[int]bool{0: true, 3: true, 6: true}
	for i, v := range out {
		if isIdentity[i] {
			if v != 1 {
				t.Errorf("position %d = %v, want 1", i, v)
			}
			continue
		}
		if v != remote[remoteIdx] {
			t.Errorf("position %d = %v, want %v", i, v, remote[remoteIdx])
		}
		remoteIdx++
	}
}

func TestInsertIdentityBatch(t *testing.T) {
	// Circuit 1 was identity-only and produced no step; circuits 0 and 2
	// each had one identity observable spliced among remote values.
	results := [][]float64{{0.5}, {0.25}}
	emptyObs := []int{1}
	identityIndices := map[int][]int{
		0: {0},
		1: {0, 1},
		2: {1},
	}

	out := InsertIdentityBatch(results, emptyObs, identityIndices)
	want := [][]float64{
		{1, 0.5},
		{1, 1},
		{0.25, 1},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("InsertIdentityBatch = %v, want %v", out, want)
	}
}

func TestInsertIdentityBatchNoIdentities(t *testing.T) {
	results := [][]float64{{0.5}, {0.25}}
	out := InsertIdentityBatch(results, nil, map[int][]int{})
	if !reflect.DeepEqual(out, results) {
		t.Errorf("InsertIdentityBatch = %v, want %v", out, results)
	}
}
