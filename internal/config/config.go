package config

import (
	"os"
	"strconv"
	"time"

	"github.com/me/goqe/internal/workflow"
)

// Config holds the client-side execution settings for a device.
type Config struct {
	// Timeout is the polling budget per workflow submission.
	Timeout time.Duration
	// PollInterval is the delay between result queries while waiting.
	PollInterval time.Duration
	// BatchSize is the number of circuits grouped into one workflow.
	BatchSize int
	// KeepFiles retains generated workflow files after submission.
	KeepFiles bool
	// Resources are optional compute hints attached to every workflow step.
	Resources *workflow.Resources
	// DataDir is where workflow files are written before submission.
	// Empty means the per-user default (~/.goqe/workflows).
	DataDir string
	// DBPath is the submission-history database path. Empty disables
	// history recording; ":memory:" is useful in tests.
	DBPath string

	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
}

// Default returns the standard settings, with GOQE_TIMEOUT and
// GOQE_BATCH_SIZE env overrides applied.
func Default() Config {
	cfg := Config{
		Timeout:      5 * time.Minute,
		PollInterval: time.Second,
		BatchSize:    10,
		LogLevel:     "info",
		LogFormat:    "text",
	}

	if v := os.Getenv("GOQE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("GOQE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	return cfg
}
