package model

import (
	"fmt"
	"strings"
	"time"
)

// ConfigurationError is returned when a workflow references a backend
// component that is not in the supported set.
type ConfigurationError struct {
	Component string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("backend component %q is not supported", e.Component)
}

// SubmissionError is returned when the qe submit command did not report
// success. Output carries the raw tool response for diagnosis.
type SubmissionError struct {
	Output []string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("workflow submission failed: %s", strings.Join(e.Output, ""))
}

// ResponseFormatError is returned when the qe tool output did not match the
// expected line/token shape after a successful-looking submission.
type ResponseFormatError struct {
	Output []string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected response after submitting workflow: %s", strings.Join(e.Output, ""))
}

// TimeoutError is returned when polling exceeded the configured budget. It
// does not imply the remote workflow failed; the remote job may still be
// running.
type TimeoutError struct {
	WorkflowID string
	Timeout    time.Duration
	Status     string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("results for workflow %s were not obtained after %s (status: %s)",
		e.WorkflowID, e.Timeout, strings.TrimSpace(e.Status))
}

// RemoteExecutionError is returned when the platform explicitly reported a
// failed status during a periodic check.
type RemoteExecutionError struct {
	WorkflowID string
	Status     string
}

func (e *RemoteExecutionError) Error() string {
	return fmt.Sprintf("workflow %s failed on the platform: %s",
		e.WorkflowID, strings.TrimSpace(e.Status))
}

// ResultFormatError is returned when a fetched result payload did not parse
// into the expected structure or was not a recognized archive format.
type ResultFormatError struct {
	WorkflowID string
	Status     string
	Reason     string
	Err        error
}

func (e *ResultFormatError) Error() string {
	msg := fmt.Sprintf("unexpected result format for workflow %s: %s", e.WorkflowID, e.Reason)
	if e.Status != "" {
		msg += fmt.Sprintf(" (status: %s)", strings.TrimSpace(e.Status))
	}
	return msg
}

func (e *ResultFormatError) Unwrap() error {
	return e.Err
}
