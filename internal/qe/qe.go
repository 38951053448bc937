// Package qe wraps the external Quantum Engine command-line tool as typed
// function calls. All three operations invoke a child process and parse its
// line-oriented stdout; process launch or non-zero exit failures propagate
// and are never retried at this layer.
package qe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/me/goqe/pkg/model"
)

// Runner executes the qe binary and returns its stdout split into lines.
// Tests substitute a fake to avoid spawning processes.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]string, error)
}

// ExecRunner runs the real qe binary.
type ExecRunner struct {
	// Binary overrides the executable name; defaults to "qe".
	Binary string
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]string, error) {
	binary := r.Binary
	if binary == "" {
		binary = "qe"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s %s: %w", binary, strings.Join(args, " "), err)
	}
	return splitLines(string(out)), nil
}

// Client issues qe CLI calls against the platform.
type Client struct {
	runner Runner
	logger *slog.Logger
}

// NewClient creates a gateway using the given runner. A nil runner defaults
// to executing the real qe binary.
func NewClient(runner Runner, logger *slog.Logger) *Client {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Client{
		runner: runner,
		logger: logger.With("component", "qe"),
	}
}

// Submit submits the workflow file at path and returns the workflow ID the
// platform assigned. Success is detected by the literal substring "Success"
// in the tool output; its absence is a SubmissionError carrying the raw
// output. On success the workflow file is deleted unless keepFile is set.
func (c *Client) Submit(ctx context.Context, path string, keepFile bool) (string, error) {
	c.logger.Debug("submitting workflow", "path", path)

	lines, err := c.runner.Run(ctx, "submit", "workflow", path)
	if err != nil {
		return "", err
	}

	if !strings.Contains(strings.Join(lines, ""), "Success") {
		return "", &model.SubmissionError{Output: lines}
	}

	if !keepFile {
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("remove workflow file after submission: %w", err)
		}
	}

	// The workflow ID is the last whitespace token of the second line.
	if len(lines) < 2 {
		return "", &model.ResponseFormatError{Output: lines}
	}
	tokens := strings.Fields(lines[1])
	if len(tokens) == 0 {
		return "", &model.ResponseFormatError{Output: lines}
	}
	id := tokens[len(tokens)-1]

	c.logger.Info("workflow submitted", "workflow_id", id)
	return id, nil
}

// WorkflowDetails fetches the status text for a workflow. The response is
// returned as raw lines with no parsing beyond line splitting.
func (c *Client) WorkflowDetails(ctx context.Context, workflowID string) ([]string, error) {
	return c.get(ctx, "workflow", workflowID)
}

// WorkflowResults fetches the result-location text for a workflow.
func (c *Client) WorkflowResults(ctx context.Context, workflowID string) ([]string, error) {
	return c.get(ctx, "workflowresult", workflowID)
}

func (c *Client) get(ctx context.Context, option, workflowID string) ([]string, error) {
	c.logger.Debug("qe get", "option", option, "workflow_id", workflowID)
	return c.runner.Run(ctx, "get", option, workflowID)
}

// splitLines splits tool output into lines, keeping the trailing newline on
// each line the way a line-by-line pipe read would.
func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for {
		idx := strings.IndexByte(out, '\n')
		if idx < 0 {
			lines = append(lines, out)
			return lines
		}
		lines = append(lines, out[:idx+1])
		out = out[idx+1:]
		if out == "" {
			return lines
		}
	}
}
