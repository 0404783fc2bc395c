// Package memory provides the default in-process checkpoint store.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/flowgraph/flowgraph/store"
)

// MemoryCheckpointStore keeps checkpoints in process memory. It is the
// default backend: cheap, safe for concurrent runs, gone on restart.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	threads     map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		threads:     make(map[string][]string),
	}
}

// cloneCheckpoint copies the struct and the top-level State and Metadata
// maps, so a caller mutating what it got back cannot corrupt the stored
// snapshot (nor the other way around).
func cloneCheckpoint(cp *store.Checkpoint) *store.Checkpoint {
	copied := *cp
	if state, ok := cp.State.(map[string]any); ok {
		m := make(map[string]any, len(state))
		maps.Copy(m, state)
		copied.State = m
	}
	if cp.Metadata != nil {
		m := make(map[string]any, len(cp.Metadata))
		maps.Copy(m, cp.Metadata)
		copied.Metadata = m
	}
	return &copied
}

// Save appends a checkpoint to its thread's log.
func (s *MemoryCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint.ID == "" {
		return fmt.Errorf("checkpoint ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.checkpoints[checkpoint.ID]; !exists {
		s.threads[checkpoint.ThreadID] = append(s.threads[checkpoint.ThreadID], checkpoint.ID)
	}
	s.checkpoints[checkpoint.ID] = cloneCheckpoint(checkpoint)
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *MemoryCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return cloneCheckpoint(cp), nil
}

// Latest returns the thread's checkpoint with the highest step index.
func (s *MemoryCheckpointStore) Latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.threads[threadID]
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}

	var latest *store.Checkpoint
	for _, id := range ids {
		cp := s.checkpoints[id]
		if latest == nil || cp.StepIndex > latest.StepIndex {
			latest = cp
		}
	}
	return cloneCheckpoint(latest), nil
}

// List returns all checkpoints for a thread ordered by step index.
func (s *MemoryCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.threads[threadID]
	out := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneCheckpoint(s.checkpoints[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepIndex < out[j].StepIndex })
	return out, nil
}

// Delete removes a checkpoint.
func (s *MemoryCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	delete(s.checkpoints, checkpointID)

	ids := s.threads[cp.ThreadID]
	for i, id := range ids {
		if id == checkpointID {
			s.threads[cp.ThreadID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all checkpoints for a thread.
func (s *MemoryCheckpointStore) Clear(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.threads[threadID] {
		delete(s.checkpoints, id)
	}
	delete(s.threads, threadID)
	return nil
}
