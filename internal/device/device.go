// Package device ties the pipeline together: it turns circuits and
// observables into workflow submissions, waits for their results, and
// reassembles ordered expectation values. It also batches large circuit sets
// into multiple workflows to respect platform step limits.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/me/goqe/internal/config"
	"github.com/me/goqe/internal/poller"
	"github.com/me/goqe/internal/qe"
	"github.com/me/goqe/internal/result"
	"github.com/me/goqe/internal/store"
	"github.com/me/goqe/internal/workflow"
	"github.com/me/goqe/pkg/model"
	"github.com/me/goqe/pkg/observable"
)

// Circuit is one unit of work: an OpenQASM program plus the observables
// whose expectation values it should be measured against.
type Circuit struct {
	QASM        string
	Observables []observable.Observable
}

// ExecutionResult carries the expectation values of one circuit together
// with the submission that produced them. Record is nil when every
// observable was the identity and nothing had to be submitted.
type ExecutionResult struct {
	Values []float64
	Record *model.SubmissionRecord
}

// BatchResult carries per-circuit expectation values for a batch, in input
// order, plus one submission record per workflow actually submitted.
type BatchResult struct {
	Values  [][]float64
	Records []*model.SubmissionRecord
}

// Gateway is the slice of the qe client the device needs directly. Polling
// goes through the Awaiter.
type Gateway interface {
	Submit(ctx context.Context, path string, keepFile bool) (string, error)
	WorkflowDetails(ctx context.Context, workflowID string) ([]string, error)
}

var _ Gateway = (*qe.Client)(nil)

// Awaiter blocks until a workflow completes and returns its result artifact.
type Awaiter interface {
	Await(ctx context.Context, workflowID string, timeout time.Duration) (result.Artifact, error)
}

var _ Awaiter = (*poller.Poller)(nil)

// Options configures a Device beyond its backend descriptor. Zero values
// fall back to defaults; a nil Gateway runs the real qe binary.
type Options struct {
	// Analytic requests exact expectation values. Ignored for backends
	// that can only sample.
	Analytic bool
	// Shots is the sample count in sampling mode; 0 uses the backend
	// default.
	Shots int

	Config  config.Config
	Gateway Gateway
	Awaiter Awaiter
	// Store, when non-nil, records every submission for later inspection.
	Store  store.Store
	Logger *slog.Logger
}

// Device executes circuits on one remote backend. It is not safe for
// concurrent use; create one device per goroutine.
type Device struct {
	backend  Backend
	analytic bool
	shots    int
	cfg      config.Config
	gateway  Gateway
	awaiter  Awaiter
	store    store.Store
	logger   *slog.Logger

	// specsJSON caches the serialized backend spec shared by every step.
	specsJSON string
}

// New creates a device for the given backend. Sampling-only backends
// silently override a requested analytic mode, matching the platform's own
// behavior of always sampling on such targets.
func New(backend Backend, opts Options) (*Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "device", "backend", backend.Name)

	analytic := opts.Analytic
	if analytic && backend.SamplingOnly {
		logger.Warn("backend cannot compute analytically, falling back to sampling")
		analytic = false
	}
	shots := opts.Shots
	if shots <= 0 {
		shots = backend.DefaultShots
	}

	cfg := opts.Config
	if cfg.Timeout <= 0 {
		cfg.Timeout = poller.DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.Default().BatchSize
	}

	gateway := opts.Gateway
	if gateway == nil {
		gateway = qe.NewClient(nil, logger)
	}
	awaiter := opts.Awaiter
	if awaiter == nil {
		client, ok := gateway.(*qe.Client)
		if !ok {
			return nil, fmt.Errorf("an awaiter is required when using a custom gateway")
		}
		awaiter = poller.New(client, nil, cfg.PollInterval, logger)
	}

	return &Device{
		backend:  backend,
		analytic: analytic,
		shots:    shots,
		cfg:      cfg,
		gateway:  gateway,
		awaiter:  awaiter,
		store:    opts.Store,
		logger:   logger,
	}, nil
}

// BackendSpecs returns the serialized backend specification embedded into
// every workflow step, computing it on first use.
func (d *Device) BackendSpecs() (string, error) {
	if d.specsJSON != "" {
		return d.specsJSON, nil
	}
	specs, err := d.backend.spec(d.analytic, d.shots).JSON()
	if err != nil {
		return "", fmt.Errorf("serialize backend specs: %w", err)
	}
	d.specsJSON = specs
	return specs, nil
}

// measurePattern matches OpenQASM measurement statements. Expectation values
// are computed platform-side from the bare circuit, so measurements baked
// into the source must not survive into the workflow.
var measurePattern = regexp.MustCompile(`measure.*?;\n?\s*`)

func stripMeasurements(qasm string) string {
	return measurePattern.ReplaceAllString(qasm, "")
}

// serializeObservables turns a circuit's observable list into the operator
// strings submitted with a step, recording at which positions identity
// observables were dropped. In sampling mode only the measured wires matter,
// so each observable collapses to its Pauli-Z string.
func (d *Device) serializeObservables(obs []observable.Observable) (ops []string, identityIdx []int) {
	for i, o := range obs {
		if o.IsIdentity() {
			identityIdx = append(identityIdx, i)
			continue
		}
		if d.analytic {
			ops = append(ops, o.QubitOperatorString())
		} else {
			ops = append(ops, observable.PauliZString(o.Wires()))
		}
	}
	return ops, identityIdx
}

// encodeOperators serializes one step's operator list to its JSON wire form.
func encodeOperators(ops []string) (string, error) {
	b, err := json.Marshal(ops)
	if err != nil {
		return "", fmt.Errorf("serialize operators: %w", err)
	}
	return string(b), nil
}

// ones returns n identity expectation values.
func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Execute computes the expectation values of a single circuit. Identity
// observables are answered locally; if the whole list is identities no
// workflow is submitted at all and the returned record is nil.
func (d *Device) Execute(ctx context.Context, circuit Circuit) (*ExecutionResult, error) {
	ops, identityIdx := d.serializeObservables(circuit.Observables)
	if len(ops) == 0 {
		return &ExecutionResult{Values: ones(len(identityIdx))}, nil
	}

	opsJSON, err := encodeOperators(ops)
	if err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	record, artifact, err := d.submitAndAwait(ctx, fileID,
		[]string{stripMeasurements(circuit.QASM)}, []string{opsJSON})
	if err != nil {
		return nil, err
	}

	values, err := result.ExtractSingle(artifact)
	if err != nil {
		return nil, d.resultFailure(ctx, record, err)
	}
	d.complete(ctx, record, model.RunStateSucceeded, "")

	return &ExecutionResult{
		Values: result.InsertIdentity(values, identityIdx),
		Record: record,
	}, nil
}

// BatchExecute computes expectation values for a list of circuits, grouping
// them into workflows of at most the configured batch size. Group results
// are concatenated in input order. A batch of exactly one circuit takes the
// single-step path.
func (d *Device) BatchExecute(ctx context.Context, circuits []Circuit) (*BatchResult, error) {
	if len(circuits) == 0 {
		return &BatchResult{}, nil
	}
	if len(circuits) == 1 {
		res, err := d.Execute(ctx, circuits[0])
		if err != nil {
			return nil, err
		}
		batch := &BatchResult{Values: [][]float64{res.Values}}
		if res.Record != nil {
			batch.Records = append(batch.Records, res.Record)
		}
		return batch, nil
	}

	// One run identifier across all groups; the group's start offset keeps
	// the workflow filenames distinct.
	runID := uuid.New().String()

	batch := &BatchResult{}
	for start := 0; start < len(circuits); start += d.cfg.BatchSize {
		end := start + d.cfg.BatchSize
		if end > len(circuits) {
			end = len(circuits)
		}
		fileID := runID + "-" + strconv.Itoa(start)

		values, record, err := d.executeGroup(ctx, circuits[start:end], fileID)
		if err != nil {
			return nil, err
		}
		batch.Values = append(batch.Values, values...)
		if record != nil {
			batch.Records = append(batch.Records, record)
		}
	}
	return batch, nil
}

// executeGroup runs one contiguous group of circuits as a multi-step
// workflow. Circuits whose observables are all identities are excluded from
// submission and synthesized locally; a group consisting only of such
// circuits submits nothing.
func (d *Device) executeGroup(ctx context.Context, circuits []Circuit, fileID string) ([][]float64, *model.SubmissionRecord, error) {
	var (
		qasm        []string
		opsJSON     []string
		emptyObs    []int
		identityIdx = make(map[int][]int)
	)
	for i, circuit := range circuits {
		ops, identities := d.serializeObservables(circuit.Observables)
		if len(identities) > 0 {
			identityIdx[i] = identities
		}
		if len(ops) == 0 {
			emptyObs = append(emptyObs, i)
			continue
		}
		encoded, err := encodeOperators(ops)
		if err != nil {
			return nil, nil, err
		}
		qasm = append(qasm, stripMeasurements(circuit.QASM))
		opsJSON = append(opsJSON, encoded)
	}

	if len(qasm) == 0 {
		values := make([][]float64, len(circuits))
		for i := range circuits {
			values[i] = ones(len(circuits[i].Observables))
		}
		return values, nil, nil
	}

	record, artifact, err := d.submitAndAwait(ctx, fileID, qasm, opsJSON)
	if err != nil {
		return nil, nil, err
	}

	values, err := result.ExtractMulti(artifact)
	if err != nil {
		return nil, nil, d.resultFailure(ctx, record, err)
	}
	if len(values) != len(qasm) {
		err := &result.FormatError{
			Reason: fmt.Sprintf("expected %d step results, got %d", len(qasm), len(values)),
		}
		return nil, nil, d.resultFailure(ctx, record, err)
	}
	d.complete(ctx, record, model.RunStateSucceeded, "")

	return result.InsertIdentityBatch(values, emptyObs, identityIdx), record, nil
}

// submitAndAwait builds, writes, and submits one workflow, then waits for
// its artifact. It returns the submission record in every case where a
// workflow ID was obtained; terminal failure states are persisted before the
// error is returned.
func (d *Device) submitAndAwait(ctx context.Context, fileID string, qasm, opsJSON []string) (*model.SubmissionRecord, result.Artifact, error) {
	specs, err := d.BackendSpecs()
	if err != nil {
		return nil, nil, err
	}

	doc, err := workflow.BuildExpval(d.backend.Component, specs, qasm, opsJSON, d.cfg.Resources)
	if err != nil {
		return nil, nil, err
	}

	dir := d.cfg.DataDir
	if dir == "" {
		if dir, err = workflow.DefaultDataDir(); err != nil {
			return nil, nil, err
		}
	}
	filename := "expval-" + fileID + ".yaml"
	path, err := workflow.WriteFile(dir, filename, doc)
	if err != nil {
		return nil, nil, err
	}

	workflowID, err := d.gateway.Submit(ctx, path, d.cfg.KeepFiles)
	if err != nil {
		return nil, nil, err
	}

	record := &model.SubmissionRecord{
		WorkflowID: workflowID,
		Filename:   filename,
		FileKept:   d.cfg.KeepFiles,
		Component:  string(d.backend.Component),
		StepCount:  len(qasm),
		State:      model.RunStatePolling,
		CreatedAt:  time.Now().UTC(),
	}
	if d.store != nil {
		if err := d.store.CreateSubmission(ctx, record); err != nil {
			d.logger.Warn("recording submission failed", "workflow_id", workflowID, "error", err)
		}
	}
	d.logger.Info("workflow submitted",
		"workflow_id", workflowID, "steps", len(qasm), "file", filename)

	artifact, err := d.awaiter.Await(ctx, workflowID, d.cfg.Timeout)
	if err != nil {
		d.complete(ctx, record, failureState(err), err.Error())
		return record, nil, err
	}
	return record, artifact, nil
}

// resultFailure converts an assembler error into the user-facing form,
// attaching a fresh status query so the message explains what the platform
// thinks happened, and marks the submission failed.
func (d *Device) resultFailure(ctx context.Context, record *model.SubmissionRecord, err error) error {
	status, _ := d.gateway.WorkflowDetails(ctx, record.WorkflowID)

	reason := err.Error()
	var formatErr *result.FormatError
	if errors.As(err, &formatErr) {
		reason = formatErr.Reason
	}
	wrapped := &model.ResultFormatError{
		WorkflowID: record.WorkflowID,
		Status:     strings.Join(status, ""),
		Reason:     reason,
		Err:        err,
	}
	d.complete(ctx, record, model.RunStateFailed, wrapped.Error())
	return wrapped
}

// complete moves the record (and, when configured, its stored row) into a
// terminal state.
func (d *Device) complete(ctx context.Context, record *model.SubmissionRecord, state model.RunState, errText string) {
	now := time.Now().UTC()
	record.State = state
	record.Error = errText
	record.CompletedAt = &now

	if d.store != nil {
		if err := d.store.CompleteSubmission(ctx, record.WorkflowID, state, errText); err != nil {
			d.logger.Warn("completing submission failed",
				"workflow_id", record.WorkflowID, "error", err)
		}
	}
}

// failureState maps a polling error to the terminal state it represents.
func failureState(err error) model.RunState {
	var timeout *model.TimeoutError
	if errors.As(err, &timeout) {
		return model.RunStateTimedOut
	}
	return model.RunStateFailed
}
