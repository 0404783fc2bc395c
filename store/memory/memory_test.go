package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flowgraph/flowgraph/store"
)

func TestMemoryCheckpointStore_New(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()

	if ms == nil {
		t.Fatal("Store should not be nil")
	}

	var _ store.CheckpointStore = ms
}

func TestMemoryCheckpointStore_BasicOperations(t *testing.T) {
	t.Parallel()

	t.Run("save and load", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()
		ctx := context.Background()

		cp := &store.Checkpoint{
			ID:        "user-session-123",
			ThreadID:  "thread-alice",
			StepIndex: 0,
			NodeName:  "auth-handler",
			State:     map[string]any{"phase": "waiting_for_2fa"},
			Timestamp: time.Now(),
			Metadata: map[string]any{
				"user_id":    "alice@example.com",
				"session_id": "sess-abc-123",
			},
		}

		if err := ms.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		loaded, err := ms.Load(ctx, cp.ID)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}

		if loaded.ID != cp.ID {
			t.Errorf("ID mismatch: got %s, want %s", loaded.ID, cp.ID)
		}
		if loaded.ThreadID != cp.ThreadID {
			t.Errorf("ThreadID mismatch: got %s, want %s", loaded.ThreadID, cp.ThreadID)
		}
		if loaded.NodeName != cp.NodeName {
			t.Errorf("NodeName mismatch: got %s, want %s", loaded.NodeName, cp.NodeName)
		}

		if userID, ok := loaded.Metadata["user_id"].(string); !ok || userID != "alice@example.com" {
			t.Error("User ID not preserved correctly")
		}
	})

	t.Run("load missing returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()

		_, err := ms.Load(context.Background(), "does-not-exist")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty ID rejected", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()

		err := ms.Save(context.Background(), &store.Checkpoint{ThreadID: "t1"})
		if err == nil {
			t.Error("Expected error for empty checkpoint ID")
		}
	})

	t.Run("overwrite keeps single thread entry", func(t *testing.T) {
		t.Parallel()

		ms := NewMemoryCheckpointStore()
		ctx := context.Background()

		cp1 := &store.Checkpoint{ID: "overwrite-test", ThreadID: "t1", StepIndex: 0, NodeName: "processor-v1"}
		if err := ms.Save(ctx, cp1); err != nil {
			t.Fatalf("Failed to save v1: %v", err)
		}

		cp2 := &store.Checkpoint{ID: "overwrite-test", ThreadID: "t1", StepIndex: 0, NodeName: "processor-v2"}
		if err := ms.Save(ctx, cp2); err != nil {
			t.Fatalf("Failed to save v2: %v", err)
		}

		loaded, err := ms.Load(ctx, "overwrite-test")
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if loaded.NodeName != "processor-v2" {
			t.Errorf("Expected overwritten checkpoint, got node %s", loaded.NodeName)
		}

		list, err := ms.List(ctx, "t1")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("Expected 1 entry after overwrite, got %d", len(list))
		}
	})
}

func TestMemoryCheckpointStore_ThreadLog(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	// Save out of order across two threads.
	for _, cp := range []*store.Checkpoint{
		{ID: "cp-b", ThreadID: "t1", StepIndex: 1, NodeName: "b"},
		{ID: "cp-a", ThreadID: "t1", StepIndex: 0, NodeName: "a"},
		{ID: "cp-x", ThreadID: "t2", StepIndex: 0, NodeName: "x"},
		{ID: "cp-c", ThreadID: "t1", StepIndex: 2, NodeName: "c"},
	} {
		if err := ms.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save %s: %v", cp.ID, err)
		}
	}

	list, err := ms.List(ctx, "t1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 checkpoints for t1, got %d", len(list))
	}
	for i, want := range []string{"cp-a", "cp-b", "cp-c"} {
		if list[i].ID != want {
			t.Errorf("List[%d] = %s, want %s", i, list[i].ID, want)
		}
	}

	latest, err := ms.Latest(ctx, "t1")
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest.ID != "cp-c" {
		t.Errorf("Latest = %s, want cp-c", latest.ID)
	}

	if _, err := ms.Latest(ctx, "no-such-thread"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty thread, got %v", err)
	}
}

func TestMemoryCheckpointStore_DeleteAndClear(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cp := &store.Checkpoint{
			ID:        fmt.Sprintf("cp-%d", i),
			ThreadID:  "t1",
			StepIndex: i,
			NodeName:  "n",
		}
		if err := ms.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}

	if err := ms.Delete(ctx, "cp-1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := ms.Load(ctx, "cp-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	list, _ := ms.List(ctx, "t1")
	if len(list) != 2 {
		t.Errorf("Expected 2 checkpoints after delete, got %d", len(list))
	}

	if err := ms.Delete(ctx, "cp-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for double delete, got %v", err)
	}

	if err := ms.Clear(ctx, "t1"); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	list, _ = ms.List(ctx, "t1")
	if len(list) != 0 {
		t.Errorf("Expected empty thread after clear, got %d", len(list))
	}
}

func TestMemoryCheckpointStore_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	cp := &store.Checkpoint{
		ID:        "cp-1",
		ThreadID:  "t1",
		StepIndex: 0,
		NodeName:  "a",
		State:     map[string]any{"phase": "original"},
	}
	if err := ms.Save(ctx, cp); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	// Mutating the loaded value must not affect the stored one. This
	// includes the state map, not just the struct fields.
	loaded, _ := ms.Load(ctx, "cp-1")
	loaded.NodeName = "mutated"
	loaded.State.(map[string]any)["phase"] = "tampered"

	again, _ := ms.Load(ctx, "cp-1")
	if again.NodeName != "a" {
		t.Errorf("Stored checkpoint was mutated through a loaded copy")
	}
	if phase := again.State.(map[string]any)["phase"]; phase != "original" {
		t.Errorf("Stored state was mutated through a loaded copy: phase = %v", phase)
	}

	latest, _ := ms.Latest(ctx, "t1")
	latest.State.(map[string]any)["phase"] = "tampered-again"

	again, _ = ms.Load(ctx, "cp-1")
	if phase := again.State.(map[string]any)["phase"]; phase != "original" {
		t.Errorf("Stored state was mutated through Latest: phase = %v", phase)
	}

	// The caller's own map is not retained either.
	cp.State.(map[string]any)["phase"] = "changed-after-save"
	again, _ = ms.Load(ctx, "cp-1")
	if phase := again.State.(map[string]any)["phase"]; phase != "original" {
		t.Errorf("Stored state aliases the saved map: phase = %v", phase)
	}
}

func TestMemoryCheckpointStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := &store.Checkpoint{
				ID:        fmt.Sprintf("cp-%d", i),
				ThreadID:  fmt.Sprintf("t%d", i%4),
				StepIndex: i / 4,
				NodeName:  "n",
			}
			if err := ms.Save(ctx, cp); err != nil {
				t.Errorf("Failed to save: %v", err)
			}
			if _, err := ms.Load(ctx, cp.ID); err != nil {
				t.Errorf("Failed to load: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		list, err := ms.List(ctx, fmt.Sprintf("t%d", i))
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(list) != 5 {
			t.Errorf("Thread t%d: expected 5 checkpoints, got %d", i, len(list))
		}
	}
}
