package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowgraph/flowgraph/log"
	"github.com/flowgraph/flowgraph/store"
	"github.com/flowgraph/flowgraph/store/file"
	"github.com/flowgraph/flowgraph/store/memory"
)

// Checkpoint is an alias for store.Checkpoint.
type Checkpoint = store.Checkpoint

// CheckpointStore is an alias for store.CheckpointStore.
type CheckpointStore = store.CheckpointStore

// NewMemoryCheckpointStore creates a new in-memory checkpoint store.
func NewMemoryCheckpointStore() store.CheckpointStore {
	return memory.NewMemoryCheckpointStore()
}

// NewFileCheckpointStore creates a new file-based checkpoint store.
func NewFileCheckpointStore(path string) (store.CheckpointStore, error) {
	return file.NewFileCheckpointStore(path)
}

// CheckpointConfig configures checkpointing behavior for a graph.
type CheckpointConfig struct {
	// Store is the checkpoint storage backend.
	Store store.CheckpointStore

	// Required makes store failures fatal to the run. When false a failing
	// save or load is a logged warning and execution continues.
	Required bool
}

// runState carries the per-run checkpointing context: the thread the run is
// keyed by and the step offset when the run resumed an existing thread.
type runState struct {
	graph    *StateGraph
	threadID string
	metadata map[string]any
	explicit bool
	base     int
}

func newRunState(g *StateGraph, threadID string, config *Config) *runState {
	rs := &runState{
		graph:    g,
		threadID: threadID,
		explicit: threadID != "",
	}
	if config != nil {
		rs.metadata = config.Metadata
	}
	if rs.threadID == "" && g.checkpoint.Store != nil {
		// Anonymous runs still get an append-only log of their own.
		rs.threadID = "run-" + uuid.New().String()
	}
	return rs
}

func (rs *runState) logger() log.Logger {
	if rs.graph.logger != nil {
		return rs.graph.logger
	}
	return log.GetDefaultLogger()
}

// restore loads the thread's latest snapshot and merges the caller's input
// on top of it. It only applies when the caller named a thread explicitly;
// anonymous runs always start fresh.
func (rs *runState) restore(ctx context.Context, input State) (State, error) {
	cfg := rs.graph.checkpoint
	if cfg.Store == nil || !rs.explicit {
		return input, nil
	}

	cp, err := cfg.Store.Latest(ctx, rs.threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return input, nil
		}
		if cfg.Required {
			return nil, fmt.Errorf("checkpoint load for thread %s: %w", rs.threadID, err)
		}
		rs.logger().Warn("checkpoint load failed for thread %s, starting fresh: %v", rs.threadID, err)
		return input, nil
	}

	rs.base = cp.StepIndex + 1

	snapshot, ok := cp.State.(map[string]any)
	if !ok {
		rs.logger().Warn("checkpoint for thread %s has unexpected state type %T, ignoring", rs.threadID, cp.State)
		return input, nil
	}

	if rs.graph.schema != nil {
		merged, err := rs.graph.schema.Update(snapshot, input)
		if err != nil {
			return nil, fmt.Errorf("merge resumed state for thread %s: %w", rs.threadID, err)
		}
		return merged, nil
	}

	merged := cloneState(snapshot)
	for field, value := range input {
		merged[field] = value
	}
	return merged, nil
}

// save appends a snapshot for the step that just merged. Called before the
// next node is resolved so a later routing failure leaves the step durable.
func (rs *runState) save(ctx context.Context, step int, nodeName string, state State) error {
	cfg := rs.graph.checkpoint
	if cfg.Store == nil {
		return nil
	}

	cp := &store.Checkpoint{
		ID:        uuid.New().String(),
		ThreadID:  rs.threadID,
		StepIndex: rs.base + step,
		NodeName:  nodeName,
		State:     cloneState(state),
		Metadata:  rs.metadata,
		Timestamp: time.Now(),
	}

	if err := cfg.Store.Save(ctx, cp); err != nil {
		if cfg.Required {
			return fmt.Errorf("checkpoint save: %w", err)
		}
		rs.logger().Warn("checkpoint save failed for thread %s step %d: %v", rs.threadID, cp.StepIndex, err)
	}
	return nil
}
