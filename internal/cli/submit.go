package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/goqe/internal/workflow"
	"github.com/me/goqe/pkg/model"
)

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <workflow.yaml>",
		Short: "Submit a prepared workflow file",
		Long:  "Submit a workflow document to the Quantum Engine and print the assigned workflow ID. Unless --keep-files is set, the file is deleted after a successful submission.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			// Validate locally before spending a platform round trip.
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read workflow: %w", err)
			}
			if _, err := workflow.Parse(data); err != nil {
				return fmt.Errorf("validate workflow: %w", err)
			}

			id, err := client.Submit(ctx, path, cfg.KeepFiles)
			if err != nil {
				return fmt.Errorf("submit workflow: %w", err)
			}

			if st := openStore(); st != nil {
				defer st.Close()
				rec := &model.SubmissionRecord{
					WorkflowID: id,
					Filename:   filepath.Base(path),
					FileKept:   cfg.KeepFiles,
					State:      model.RunStatePolling,
					CreatedAt:  time.Now().UTC(),
				}
				if err := st.CreateSubmission(ctx, rec); err != nil {
					logger.Warn("recording submission failed", "workflow_id", id, "error", err)
				}
			}

			fmt.Println(id)
			return nil
		},
	}
}
