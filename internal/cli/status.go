package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "Print the platform status of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := client.WorkflowDetails(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get workflow: %w", err)
			}
			for _, line := range lines {
				fmt.Print(line)
			}
			return nil
		},
	}
}
