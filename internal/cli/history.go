package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded workflow submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := openStore()
			if st == nil {
				return fmt.Errorf("no history database configured; pass --db")
			}
			defer st.Close()

			records, err := st.ListSubmissions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list submissions: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("no submissions recorded")
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%-40s  %-9s  %s", rec.WorkflowID, rec.State, rec.CreatedAt.Local().Format(time.DateTime))
				if rec.Error != "" {
					fmt.Printf("  %s", rec.Error)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of submissions to list")
	return cmd
}
