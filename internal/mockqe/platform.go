// Package mockqe is a local stand-in for the Quantum Engine platform. It
// accepts workflow documents, simulates their progression through the queue,
// and serves result artifacts in the platform's archive format. It backs
// end-to-end tests and the mockqe development server.
package mockqe

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/me/goqe/internal/workflow"
)

// ResultFunc produces the expectation values a simulated step reports, given
// its index in the workflow and its decoded operator list.
type ResultFunc func(stepIndex int, operators []string) []float64

// defaultResults reports a deterministic value per operator so tests can
// assert on output without configuring anything.
func defaultResults(stepIndex int, operators []string) []float64 {
	values := make([]float64, len(operators))
	for i := range values {
		values[i] = float64(stepIndex) + float64(i+1)/10
	}
	return values
}

// Options configures the simulated platform.
type Options struct {
	// ReadyAfter is how many result queries a workflow answers with an
	// incomplete response before its artifact becomes available.
	ReadyAfter int
	// Fail marks every submitted workflow as failed instead of ever
	// producing results.
	Fail bool
	// Results overrides the per-step value synthesis.
	Results ResultFunc
	Logger  *slog.Logger
}

// Platform is the simulated Quantum Engine. It is an http.Handler; tests
// typically mount it on an httptest server and point a Runner at it.
type Platform struct {
	router  chi.Router
	logger  *slog.Logger
	opts    Options
	mu      sync.Mutex
	runs    map[string]*run
	baseURL string
}

type run struct {
	id        string
	doc       *workflow.Document
	createdAt time.Time
	queries   int
	failed    bool
}

// New creates a platform. Call SetBaseURL once the listen address is known,
// so artifact links in result responses resolve.
func New(opts Options) *Platform {
	if opts.Results == nil {
		opts.Results = defaultResults
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Platform{
		router: chi.NewRouter(),
		logger: logger.With("component", "mockqe"),
		opts:   opts,
		runs:   make(map[string]*run),
	}
	p.routes()
	return p
}

// SetBaseURL sets the externally reachable address artifact links are built
// from.
func (p *Platform) SetBaseURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseURL = url
}

// ServeHTTP implements http.Handler.
func (p *Platform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

func (p *Platform) routes() {
	r := p.router
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/workflows", p.handleSubmit)
		r.Route("/workflows/{id}", func(r chi.Router) {
			r.Get("/", p.handleStatus)
			r.Get("/result", p.handleResult)
		})
		r.Get("/artifacts/{id}", p.handleArtifact)
	})
}

// handleSubmit accepts a workflow document and enqueues a simulated run.
func (p *Platform) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := workflow.Parse(body)
	if err != nil {
		http.Error(w, "parse workflow: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := doc.Name + "-" + uuid.New().String()[:8]
	p.mu.Lock()
	p.runs[id] = &run{
		id:        id,
		doc:       doc,
		createdAt: time.Now(),
		failed:    p.opts.Fail,
	}
	p.mu.Unlock()

	p.logger.Info("workflow accepted", "workflow_id", id, "steps", len(doc.Steps))
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintln(w, id)
}

// handleStatus reports the run's state in the tool's tabular text form.
func (p *Platform) handleStatus(w http.ResponseWriter, r *http.Request) {
	rn := p.lookup(w, chi.URLParam(r, "id"))
	if rn == nil {
		return
	}

	p.mu.Lock()
	status := "Running"
	if rn.failed {
		status = "Failed"
	} else if rn.queries > p.opts.ReadyAfter {
		status = "Succeeded"
	}
	p.mu.Unlock()

	fmt.Fprintf(w, "Name:     %s\n", rn.id)
	fmt.Fprintf(w, "Status:   %s\n", status)
	fmt.Fprintf(w, "Created:  %s\n", rn.createdAt.Format(time.RFC3339))
}

// handleResult reports where the artifact can be fetched. Until the run
// completes the response is deliberately truncated, matching the platform's
// habit of answering result queries before results exist.
func (p *Platform) handleResult(w http.ResponseWriter, r *http.Request) {
	rn := p.lookup(w, chi.URLParam(r, "id"))
	if rn == nil {
		return
	}

	p.mu.Lock()
	rn.queries++
	ready := !rn.failed && rn.queries > p.opts.ReadyAfter
	base := p.baseURL
	p.mu.Unlock()

	fmt.Fprintln(w, "Workflow results:")
	if ready {
		fmt.Fprintf(w, "Location: %s/v1/artifacts/%s\n", base, rn.id)
	}
}

// handleArtifact serves the gzip-compressed tar archive holding the result
// payload.
func (p *Platform) handleArtifact(w http.ResponseWriter, r *http.Request) {
	rn := p.lookup(w, chi.URLParam(r, "id"))
	if rn == nil {
		return
	}

	archive, err := p.buildArtifact(rn)
	if err != nil {
		http.Error(w, "build artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Write(archive)
}

func (p *Platform) lookup(w http.ResponseWriter, id string) *run {
	p.mu.Lock()
	rn := p.runs[id]
	p.mu.Unlock()
	if rn == nil {
		http.Error(w, "unknown workflow", http.StatusNotFound)
	}
	return rn
}

// buildArtifact synthesizes the workflow_result.json payload: one entry per
// step under an opaque key, carrying the step name and its expectation
// values.
func (p *Platform) buildArtifact(rn *run) ([]byte, error) {
	payload := make(map[string]any, len(rn.doc.Steps))
	for i, step := range rn.doc.Steps {
		operators, err := stepOperators(step)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		values := p.opts.Results(i, operators)
		list := make([]any, len(values))
		for j, v := range values {
			list[j] = v
		}
		payload[fmt.Sprintf("%s-%s", rn.id, step.Name)] = map[string]any{
			"stepName": step.Name,
			"expval":   map[string]any{"list": list},
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{
		Name: "workflow_result.json",
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write(data); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stepOperators decodes the operators step input back into its string list.
func stepOperators(step workflow.Step) ([]string, error) {
	for _, in := range step.Inputs {
		if in.Key != "operators" {
			continue
		}
		var operators []string
		if err := json.Unmarshal([]byte(in.Value), &operators); err != nil {
			return nil, fmt.Errorf("decode operators: %w", err)
		}
		return operators, nil
	}
	return nil, fmt.Errorf("no operators input")
}
