// Package cli implements the goqe command-line interface.
package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/goqe/internal/config"
	"github.com/me/goqe/internal/logging"
	"github.com/me/goqe/internal/qe"
)

var (
	flagDebug        bool
	flagLogLevel     string
	flagLogFormat    string
	flagTimeout      time.Duration
	flagPollInterval time.Duration
	flagKeepFiles    bool
	flagDBPath       string
	flagQEBinary     string

	logger *slog.Logger
	cfg    config.Config
	client *qe.Client
)

// NewRootCmd creates the root cobra command for the goqe CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.Default()

	root := &cobra.Command{
		Use:   "goqe",
		Short: "goqe — quantum circuit execution on the Orquestra Quantum Engine",
		Long:  "goqe submits expectation-value workflows to the Orquestra Quantum Engine, polls them to completion, and assembles their results.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)

			cfg = config.Default()
			cfg.Timeout = flagTimeout
			cfg.PollInterval = flagPollInterval
			cfg.KeepFiles = flagKeepFiles
			cfg.DBPath = flagDBPath
			cfg.LogLevel = flagLogLevel
			cfg.LogFormat = flagLogFormat

			client = qe.NewClient(&qe.ExecRunner{Binary: flagQEBinary}, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", defaults.LogFormat, "Log format (text, json)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", defaults.Timeout, "Polling budget per workflow (or GOQE_TIMEOUT seconds)")
	root.PersistentFlags().DurationVar(&flagPollInterval, "poll-interval", defaults.PollInterval, "Delay between result queries")
	root.PersistentFlags().BoolVar(&flagKeepFiles, "keep-files", false, "Retain workflow files after submission")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "Submission-history database path (empty disables history)")
	root.PersistentFlags().StringVar(&flagQEBinary, "qe-binary", "", "Quantum Engine executable (default \"qe\")")

	root.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newResultsCmd(),
		newHistoryCmd(),
	)

	return root
}
