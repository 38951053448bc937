package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/goqe/internal/poller"
	"github.com/me/goqe/internal/result"
	"github.com/me/goqe/pkg/model"
)

func newResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <workflow-id>",
		Short: "Wait for a workflow and print its expectation values",
		Long:  "Poll the workflow until it completes, download its result artifact, and print per-step expectation values in step order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workflowID := args[0]

			p := poller.New(client, nil, cfg.PollInterval, logger)
			artifact, err := p.Await(ctx, workflowID, cfg.Timeout)
			if err != nil {
				recordOutcome(ctx, workflowID, err)
				return err
			}

			values, err := result.ExtractMulti(artifact)
			if err != nil {
				// Single-step artifacts carry no step ordering to recover.
				single, singleErr := result.ExtractSingle(artifact)
				if singleErr != nil {
					recordOutcome(ctx, workflowID, err)
					return fmt.Errorf("decode results: %w", err)
				}
				values = [][]float64{single}
			}
			recordOutcome(ctx, workflowID, nil)

			for i, list := range values {
				fmt.Printf("step %d:", i)
				for _, v := range list {
					fmt.Printf(" %g", v)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

// recordOutcome moves the workflow's history entry, when one exists, into
// the terminal state the poll arrived at. Unknown workflows and store
// trouble are logged only.
func recordOutcome(ctx context.Context, workflowID string, pollErr error) {
	st := openStore()
	if st == nil {
		return
	}
	defer st.Close()

	state := model.RunStateSucceeded
	errText := ""
	if pollErr != nil {
		errText = pollErr.Error()
		state = model.RunStateFailed
		var timeoutErr *model.TimeoutError
		if errors.As(pollErr, &timeoutErr) {
			state = model.RunStateTimedOut
		}
	}

	if err := st.CompleteSubmission(ctx, workflowID, state, errText); err != nil {
		logger.Debug("updating history failed", "workflow_id", workflowID, "error", err)
	}
}
