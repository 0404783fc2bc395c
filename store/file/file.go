// Package file provides a checkpoint store backed by JSON files on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/flowgraph/flowgraph/store"
)

// FileCheckpointStore persists each checkpoint as a JSON file under a base
// directory, one subdirectory per thread. Suitable for local durable
// execution without a database.
type FileCheckpointStore struct {
	mu   sync.Mutex
	path string
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates a store rooted at path, creating the
// directory if needed.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{path: path}, nil
}

func (s *FileCheckpointStore) threadDir(threadID string) string {
	return filepath.Join(s.path, sanitize(threadID))
}

func (s *FileCheckpointStore) checkpointFile(threadID, checkpointID string) string {
	return filepath.Join(s.threadDir(threadID), sanitize(checkpointID)+".json")
}

// sanitize keeps thread and checkpoint IDs usable as file names.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, id)
}

// Save appends a checkpoint to its thread's directory.
func (s *FileCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint.ID == "" {
		return fmt.Errorf("checkpoint ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.threadDir(checkpoint.ThreadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create thread directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	// Write-then-rename so readers never see a torn file.
	target := s.checkpointFile(checkpoint.ThreadID, checkpoint.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID, scanning all threads.
func (s *FileCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint directory: %w", err)
	}

	name := sanitize(checkpointID) + ".json"
	for _, thread := range threads {
		if !thread.IsDir() {
			continue
		}
		target := filepath.Join(s.path, thread.Name(), name)
		cp, err := readCheckpoint(target)
		if err == nil {
			return cp, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
}

// Latest returns the thread's checkpoint with the highest step index.
func (s *FileCheckpointStore) Latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	checkpoints, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}
	return checkpoints[len(checkpoints)-1], nil
}

// List returns all checkpoints for a thread ordered by step index.
func (s *FileCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.threadDir(threadID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*store.Checkpoint{}, nil
		}
		return nil, fmt.Errorf("read thread directory: %w", err)
	}

	out := make([]*store.Checkpoint, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		cp, err := readCheckpoint(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepIndex < out[j].StepIndex })
	return out, nil
}

// Delete removes a checkpoint.
func (s *FileCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	cp, err := s.Load(ctx, checkpointID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.checkpointFile(cp.ThreadID, cp.ID)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a thread.
func (s *FileCheckpointStore) Clear(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.threadDir(threadID)); err != nil {
		return fmt.Errorf("clear thread checkpoints: %w", err)
	}
	return nil
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint %s: %w", path, err)
	}
	return &cp, nil
}
