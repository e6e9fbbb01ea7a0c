package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an async job. Transitions are
// monotonic: pending -> processing -> {completed, failed}.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether s is a final status
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobKind distinguishes the long operations the coordinator runs
type JobKind string

const (
	JobKindEdit   JobKind = "edit"
	JobKindExport JobKind = "export"
)

// GenerationJob is the durable record behind the submit/poll contract.
// RequestID doubles as the idempotency and polling key.
type GenerationJob struct {
	RequestID    string          `json:"request_id"`
	SessionID    uuid.UUID       `json:"session_id"`
	Kind         JobKind         `json:"kind"`
	Status       JobStatus       `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// JobRepository persists job records so polling survives a coordinator
// restart mid-operation.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	Get(ctx context.Context, requestID string) (*GenerationJob, error)
	MarkProcessing(ctx context.Context, requestID string) error
	Complete(ctx context.Context, requestID string, result json.RawMessage) error
	Fail(ctx context.Context, requestID string, message string) error
	// FailStale terminates every non-terminal job, used at startup so a
	// job interrupted by a restart is never left processing forever.
	FailStale(ctx context.Context, message string) (int64, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}
