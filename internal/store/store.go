package store

import (
	"context"

	"github.com/me/goqe/pkg/model"
)

// Store persists the submission history of a device.
type Store interface {
	// CreateSubmission records a freshly submitted workflow.
	CreateSubmission(ctx context.Context, rec *model.SubmissionRecord) error
	// GetSubmission fetches a record by workflow ID; nil if unknown.
	GetSubmission(ctx context.Context, workflowID string) (*model.SubmissionRecord, error)
	// ListSubmissions returns records newest-first.
	ListSubmissions(ctx context.Context, limit int) ([]*model.SubmissionRecord, error)
	// CompleteSubmission moves a record into a terminal state.
	CompleteSubmission(ctx context.Context, workflowID string, state model.RunState, errText string) error

	Close() error
	Migrate(ctx context.Context) error
}
