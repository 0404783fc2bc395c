package graph

import (
	"context"
	"sync"
	"time"
)

// StepEvent is the record emitted for every executed step: which node ran
// on which thread, what it saw, what it returned, and how long it took.
type StepEvent struct {
	// ThreadID identifies the run (or the resumed thread) the step belongs to.
	ThreadID string

	// StepIndex is the zero-based position of the step within the thread.
	StepIndex int

	// NodeName is the node that executed.
	NodeName string

	// Input is a snapshot of the state the node was invoked with.
	Input State

	// Update is the partial update the node returned.
	Update State

	// Duration is the wall-clock time of the node invocation.
	Duration time.Duration
}

// TraceHook receives step events. Delivery is best effort: a hook that
// panics is recovered and a slow hook delays only its own tracer, never the
// correctness of the run.
type TraceHook interface {
	OnStep(ctx context.Context, event StepEvent)
}

// TraceHookFunc is a function adapter for TraceHook.
type TraceHookFunc func(ctx context.Context, event StepEvent)

// OnStep implements the TraceHook interface.
func (f TraceHookFunc) OnStep(ctx context.Context, event StepEvent) {
	f(ctx, event)
}

// Tracer fans step events out to registered hooks.
type Tracer struct {
	mu    sync.RWMutex
	hooks []TraceHook
}

// NewTracer creates a new tracer instance.
func NewTracer() *Tracer {
	return &Tracer{}
}

// AddHook registers a new trace hook.
func (t *Tracer) AddHook(hook TraceHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

func (t *Tracer) emit(ctx context.Context, event StepEvent) {
	t.mu.RLock()
	hooks := make([]TraceHook, len(t.hooks))
	copy(hooks, t.hooks)
	t.mu.RUnlock()

	for _, hook := range hooks {
		safeOnStep(ctx, hook, event)
	}
}

func safeOnStep(ctx context.Context, hook TraceHook, event StepEvent) {
	defer func() {
		// A misbehaving sink must never fail the run.
		_ = recover()
	}()
	hook.OnStep(ctx, event)
}

func (g *StateGraph) emitStep(ctx context.Context, event StepEvent) {
	if g.tracer == nil {
		return
	}
	g.tracer.emit(ctx, event)
}

// Recorder is a TraceHook that collects events in memory. Useful in tests
// and for post-run inspection.
type Recorder struct {
	mu     sync.Mutex
	events []StepEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnStep implements TraceHook.
func (r *Recorder) OnStep(ctx context.Context, event StepEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns the events recorded so far, in emission order.
func (r *Recorder) Events() []StepEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StepEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Clear discards recorded events.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
