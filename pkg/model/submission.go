package model

import "time"

// SubmissionRecord is the bookkeeping for one workflow submitted to the
// platform. Execution calls return it alongside the numeric results instead
// of accumulating hidden state on the device, and the history store persists
// it.
type SubmissionRecord struct {
	WorkflowID string     `json:"workflow_id"`
	Filename   string     `json:"filename"`
	// FileKept reports whether the workflow file was retained after
	// submission; when false the file was deleted and Filename is only a
	// historical reference.
	FileKept    bool       `json:"file_kept"`
	Component   string     `json:"component"`
	StepCount   int        `json:"step_count"`
	State       RunState   `json:"state"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
