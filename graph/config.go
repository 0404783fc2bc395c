package graph

import "context"

// DefaultMaxSteps caps a run that never sets an explicit step limit. It
// exists to turn accidental cycles into errors instead of hangs.
const DefaultMaxSteps = 25

// Config carries per-invocation settings.
type Config struct {
	// ThreadID keys checkpoints for this run. When set and a checkpoint
	// store is attached, the run resumes from the thread's latest snapshot.
	ThreadID string

	// MaxSteps overrides the graph's step cap for this run. Zero means use
	// the graph's configured limit.
	MaxSteps int

	// Configurable holds arbitrary values nodes can read via GetConfig.
	Configurable map[string]any

	// Metadata is attached to every checkpoint the run saves.
	Metadata map[string]any
}

// WithThreadID creates a Config keyed to the given thread for
// checkpoint-based resumption.
//
//	result, err := runnable.InvokeWithConfig(ctx, state, graph.WithThreadID("conversation-1"))
func WithThreadID(threadID string) *Config {
	return &Config{ThreadID: threadID}
}

type configKey struct{}

// WithConfig injects the run config into the context passed to nodes.
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// GetConfig retrieves the run config from a node's context, or nil when the
// run was invoked without one.
func GetConfig(ctx context.Context) *Config {
	if config, ok := ctx.Value(configKey{}).(*Config); ok {
		return config
	}
	return nil
}
