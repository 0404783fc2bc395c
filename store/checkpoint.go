package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no checkpoint matches the requested ID or
// thread. Backends wrap their own miss conditions with it so callers can
// use errors.Is.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a snapshot of graph state taken after a step completed,
// keyed by the thread the run belongs to. Checkpoints form an append-only
// log per thread; StepIndex increases monotonically within a thread.
type Checkpoint struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	StepIndex int            `json:"step_index"`
	NodeName  string         `json:"node_name"`
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CheckpointStore defines the interface for checkpoint persistence.
// Implementations must guarantee per-thread write atomicity; distinct
// threads may be written concurrently.
type CheckpointStore interface {
	// Save appends a checkpoint to its thread's log.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// Latest returns the thread's checkpoint with the highest step index.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread ordered by step index.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a thread.
	Clear(ctx context.Context, threadID string) error
}
