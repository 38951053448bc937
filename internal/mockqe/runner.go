package mockqe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Runner speaks to a running simulated platform over HTTP while presenting
// the command-line tool's argument and output conventions, so the rest of
// the pipeline cannot tell it apart from the real qe binary.
type Runner struct {
	baseURL string
	http    *http.Client
}

// NewRunner creates a runner against the platform at baseURL.
func NewRunner(baseURL string, httpClient *http.Client) *Runner {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Runner{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Run dispatches one tool invocation. Supported forms are
// "submit workflow <path>", "get workflow <id>", and
// "get workflowresult <id>".
func (r *Runner) Run(ctx context.Context, args ...string) ([]string, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("unsupported invocation: %s", strings.Join(args, " "))
	}

	switch {
	case args[0] == "submit" && args[1] == "workflow":
		return r.submit(ctx, args[2])
	case args[0] == "get" && args[1] == "workflow":
		return r.fetch(ctx, "/v1/workflows/"+args[2])
	case args[0] == "get" && args[1] == "workflowresult":
		return r.fetch(ctx, "/v1/workflows/"+args[2]+"/result")
	default:
		return nil, fmt.Errorf("unsupported invocation: %s", strings.Join(args, " "))
	}
}

// submit uploads the workflow file and reports the outcome in the tool's
// two-line success form, with the assigned ID as the last token of the
// second line.
func (r *Runner) submit(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/v1/workflows", strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-yaml")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		return []string{
			"Error submitting workflow to quantum engine.\n",
			string(body),
		}, nil
	}

	id := strings.TrimSpace(string(body))
	return []string{
		"Successfully submitted workflow to quantum engine!\n",
		"Workflow ID: " + id + "\n",
	}, nil
}

// fetch performs a GET and returns the plain-text body split into lines.
func (r *Runner) fetch(ctx context.Context, path string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", path, strings.TrimSpace(string(body)))
	}
	return splitLines(string(body)), nil
}

// splitLines splits response text into lines, keeping each trailing newline.
func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	var lines []string
	for {
		idx := strings.IndexByte(body, '\n')
		if idx < 0 {
			lines = append(lines, body)
			return lines
		}
		lines = append(lines, body[:idx+1])
		body = body[idx+1:]
		if body == "" {
			return lines
		}
	}
}
