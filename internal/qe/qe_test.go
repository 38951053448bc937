package qe

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/me/goqe/pkg/model"
)

// fakeRunner returns canned lines and records the arguments it was called
// with.
type fakeRunner struct {
	lines []string
	err   error
	calls [][]string
}

func (r *fakeRunner) Run(_ context.Context, args ...string) ([]string, error) {
	r.calls = append(r.calls, args)
	return r.lines, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeTempWorkflow(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expval-test.yaml")
	if err := os.WriteFile(path, []byte("apiVersion: io.orquestra.workflow/1.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmitSuccess(t *testing.T) {
	runner := &fakeRunner{lines: []string{
		"Successfully submitted workflow to quantum engine!\n",
		"SomeWorkflowID",
	}}
	client := NewClient(runner, testLogger())
	path := writeTempWorkflow(t)

	id, err := client.Submit(context.Background(), path, false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "SomeWorkflowID" {
		t.Errorf("workflow id = %q, want %q", id, "SomeWorkflowID")
	}

	// The workflow file is deleted after a successful submission.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("workflow file still exists after submission")
	}

	want := []string{"submit", "workflow", path}
	if !reflect.DeepEqual(runner.calls[0], want) {
		t.Errorf("submit args = %v, want %v", runner.calls[0], want)
	}
}

func TestSubmitKeepFile(t *testing.T) {
	runner := &fakeRunner{lines: []string{
		"Successfully submitted workflow to quantum engine!\n",
		"SomeWorkflowID",
	}}
	client := NewClient(runner, testLogger())
	path := writeTempWorkflow(t)

	if _, err := client.Submit(context.Background(), path, true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("workflow file should be kept: %v", err)
	}
}

func TestSubmitNoSuccess(t *testing.T) {
	runner := &fakeRunner{lines: []string{"Not a success message.\n"}}
	client := NewClient(runner, testLogger())

	_, err := client.Submit(context.Background(), writeTempWorkflow(t), false)
	var subErr *model.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if len(subErr.Output) != 1 || subErr.Output[0] != "Not a success message.\n" {
		t.Errorf("error output = %v", subErr.Output)
	}
}

func TestSubmitUnexpectedResponse(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"single line", []string{"Test Success"}},
		{"empty second line", []string{"Test Success\n", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{lines: tt.lines}
			client := NewClient(runner, testLogger())

			_, err := client.Submit(context.Background(), writeTempWorkflow(t), false)
			var respErr *model.ResponseFormatError
			if !errors.As(err, &respErr) {
				t.Fatalf("expected ResponseFormatError, got %v", err)
			}
		})
	}
}

func TestGetOptions(t *testing.T) {
	runner := &fakeRunner{lines: []string{"Status:   Running\n"}}
	client := NewClient(runner, testLogger())

	if _, err := client.WorkflowDetails(context.Background(), "wf-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.WorkflowResults(context.Background(), "wf-1"); err != nil {
		t.Fatal(err)
	}

	wantCalls := [][]string{
		{"get", "workflow", "wf-1"},
		{"get", "workflowresult", "wf-1"},
	}
	if !reflect.DeepEqual(runner.calls, wantCalls) {
		t.Errorf("calls = %v, want %v", runner.calls, wantCalls)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one line", []string{"one line"}},
		{"a\nb\n", []string{"a\n", "b\n"}},
		{"a\nb", []string{"a\n", "b"}},
	}
	for _, tt := range tests {
		if got := splitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitLines(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
