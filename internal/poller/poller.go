// Package poller waits for a submitted workflow to reach a terminal state
// and retrieves its result artifact.
package poller

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/me/goqe/internal/qe"
	"github.com/me/goqe/internal/result"
	"github.com/me/goqe/pkg/model"
)

// statusCheckEvery throttles explicit status queries: the failure check runs
// only every Nth iteration to bound load on the external tool.
const statusCheckEvery = 20

// DefaultInterval is the delay between poll iterations.
const DefaultInterval = time.Second

// DefaultTimeout is the default polling budget.
const DefaultTimeout = 5 * time.Minute

// Gateway is the slice of the qe client the poller needs.
type Gateway interface {
	WorkflowDetails(ctx context.Context, workflowID string) ([]string, error)
	WorkflowResults(ctx context.Context, workflowID string) ([]string, error)
}

var _ Gateway = (*qe.Client)(nil)

// Poller polls the platform until a workflow completes, fails, or the
// timeout budget is spent. Each call is a single blocking thread of control;
// there is no internal parallelism and no way to cancel the remote job.
type Poller struct {
	gateway  Gateway
	http     *http.Client
	interval time.Duration
	logger   *slog.Logger
}

// New creates a poller. A nil httpClient falls back to a default client,
// and a non-positive interval falls back to DefaultInterval.
func New(gateway Gateway, httpClient *http.Client, interval time.Duration, logger *slog.Logger) *Poller {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		gateway:  gateway,
		http:     httpClient,
		interval: interval,
		logger:   logger.With("component", "poller"),
	}
}

// probe is the tagged outcome of one poll iteration: either the artifact
// location is ready, or the workflow simply has not produced one yet.
// Malformed intermediate responses are normal pre-completion states, not
// errors.
type probe struct {
	ready    bool
	location string
}

// Await blocks until the workflow reaches a terminal state and returns the
// decoded result artifact. The timeout is measured monotonically from entry;
// exceeding it returns a TimeoutError carrying the last status text. An
// explicit Failed status from the platform returns a RemoteExecutionError.
func (p *Poller) Await(ctx context.Context, workflowID string, timeout time.Duration) (result.Artifact, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	state := model.RunStatePolling
	tries := 0

	p.logger.Debug("awaiting workflow", "workflow_id", workflowID, "timeout", timeout)

	var location string
	for state == model.RunStatePolling {
		tries++

		if time.Since(start) > timeout {
			state = model.RunStateTimedOut
			status, _ := p.gateway.WorkflowDetails(ctx, workflowID)
			return nil, &model.TimeoutError{
				WorkflowID: workflowID,
				Timeout:    timeout,
				Status:     strings.Join(status, ""),
			}
		}

		if tries%statusCheckEvery == 0 {
			if err := p.checkFailed(ctx, workflowID); err != nil {
				state = model.RunStateFailed
				return nil, err
			}
		}

		pr, err := p.probeResults(ctx, workflowID)
		if err != nil {
			return nil, err
		}
		if pr.ready {
			state = model.RunStateSucceeded
			location = pr.location
			break
		}

		if err := p.sleep(ctx); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("workflow succeeded", "workflow_id", workflowID, "location", location, "tries", tries)
	return p.fetchArtifact(ctx, workflowID, location)
}

// checkFailed fetches status text and looks for the Failed token among its
// whitespace-split tokens.
func (p *Poller) checkFailed(ctx context.Context, workflowID string) error {
	status, err := p.gateway.WorkflowDetails(ctx, workflowID)
	if err != nil {
		return err
	}
	for _, token := range strings.Fields(strings.Join(status, "")) {
		if token == "Failed" {
			return &model.RemoteExecutionError{
				WorkflowID: workflowID,
				Status:     strings.Join(status, ""),
			}
		}
	}
	return nil
}

// probeResults asks for the result location and checks whether it is a live,
// dereferenceable resource. Any structural shortfall in the response simply
// means the workflow is not finished.
func (p *Poller) probeResults(ctx context.Context, workflowID string) (probe, error) {
	lines, err := p.gateway.WorkflowResults(ctx, workflowID)
	if err != nil {
		return probe{}, err
	}

	// The artifact URL is by convention the second whitespace token of the
	// second line.
	if len(lines) < 2 {
		return probe{}, nil
	}
	tokens := strings.Fields(lines[1])
	if len(tokens) < 2 {
		return probe{}, nil
	}
	location := tokens[1]

	if !p.dereferenceable(ctx, location) {
		return probe{}, nil
	}
	return probe{ready: true, location: location}, nil
}

// dereferenceable reports whether the location answers an HTTP GET.
func (p *Poller) dereferenceable(ctx context.Context, location string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// sleep waits one poll interval, honoring context cancellation.
func (p *Poller) sleep(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
