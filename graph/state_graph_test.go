package graph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalGraph(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("hello", "says hello", func(ctx context.Context, state State) (State, error) {
		return State{"greeting": "hello world"}, nil
	})
	g.AddEdge(START, "hello")
	g.AddEdge("hello", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	res, err := runnable.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", res["greeting"])
}

func TestLinearPipeline(t *testing.T) {
	schema := NewMapSchema()
	schema.RegisterReducer("log", AppendReducer)

	g := NewStateGraph()
	g.SetSchema(schema)
	for _, name := range []string{"a", "b", "c"} {
		name := name
		g.AddNode(name, "", func(ctx context.Context, state State) (State, error) {
			return State{"log": []string{name}, "last": name}, nil
		})
	}
	g.AddEdge(START, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	res, err := runnable.Invoke(context.Background(), State{"log": []string{"start"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "a", "b", "c"}, res["log"])
	assert.Equal(t, "c", res["last"])
}

func TestDeterministicRuns(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("double", "", func(ctx context.Context, state State) (State, error) {
		n := state["n"].(int)
		return State{"n": n * 2}, nil
	})
	g.AddEdge(START, "double")
	g.AddEdge("double", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	// Same input, same output, every time; runs do not share state.
	for i := 0; i < 10; i++ {
		res, err := runnable.Invoke(context.Background(), State{"n": 21})
		require.NoError(t, err)
		assert.Equal(t, 42, res["n"])
	}
}

func TestInputStateNotMutated(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("set", "", func(ctx context.Context, state State) (State, error) {
		return State{"n": 99}, nil
	})
	g.AddEdge(START, "set")
	g.AddEdge("set", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	input := State{"n": 1}
	_, err = runnable.Invoke(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, input["n"])
}

func TestSelfLoopHitsStepLimit(t *testing.T) {
	var invocations atomic.Int64

	g := NewStateGraph()
	g.AddNode("loop", "", func(ctx context.Context, state State) (State, error) {
		invocations.Add(1)
		return nil, nil
	})
	g.AddNode("exit", "", func(ctx context.Context, state State) (State, error) {
		return nil, nil
	})
	g.AddEdge(START, "loop")
	g.AddEdge("loop", "loop")
	g.AddEdge("exit", END)
	g.SetMaxSteps(3)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutionLimitExceeded)

	// The limit allows exactly maxSteps invocations, never a partial fourth.
	assert.Equal(t, int64(3), invocations.Load())

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.Step)
	assert.Equal(t, "loop", execErr.Node)
}

func TestMaxStepsPerInvokeOverride(t *testing.T) {
	var invocations atomic.Int64

	g := NewStateGraph()
	g.AddNode("loop", "", func(ctx context.Context, state State) (State, error) {
		invocations.Add(1)
		return nil, nil
	})
	g.AddNode("exit", "", func(ctx context.Context, state State) (State, error) { return nil, nil })
	g.AddEdge(START, "loop")
	g.AddEdge("loop", "loop")
	g.AddEdge("exit", END)
	g.SetMaxSteps(100)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.InvokeWithConfig(context.Background(), nil, &Config{MaxSteps: 2})
	assert.ErrorIs(t, err, ErrExecutionLimitExceeded)
	assert.Equal(t, int64(2), invocations.Load())
}

func TestDefaultMaxStepsApplies(t *testing.T) {
	var invocations atomic.Int64

	g := NewStateGraph()
	g.AddNode("loop", "", func(ctx context.Context, state State) (State, error) {
		invocations.Add(1)
		return nil, nil
	})
	g.AddNode("exit", "", func(ctx context.Context, state State) (State, error) { return nil, nil })
	g.AddEdge(START, "loop")
	g.AddEdge("loop", "loop")
	g.AddEdge("exit", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExecutionLimitExceeded)
	assert.Equal(t, int64(DefaultMaxSteps), invocations.Load())
}

func TestNodeErrorWrapped(t *testing.T) {
	boom := errors.New("boom")

	g := NewStateGraph()
	g.AddNode("a", "", func(ctx context.Context, state State) (State, error) {
		return State{"seen": true}, nil
	})
	g.AddNode("b", "", func(ctx context.Context, state State) (State, error) {
		return nil, boom
	})
	g.AddEdge(START, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.Step)
	assert.Equal(t, "b", execErr.Node)
	// State reflects the last completed merge (node a's update).
	assert.Equal(t, true, execErr.State["seen"])
}

func TestMergeErrorCarriesStateBeforeFailingMerge(t *testing.T) {
	schema := NewMapSchema()
	schema.RegisterReducer("log", AppendReducer)

	g := NewStateGraph()
	g.AddNode("good", "", func(ctx context.Context, state State) (State, error) {
		return State{"log": []string{"good"}}, nil
	})
	g.AddNode("bad", "", func(ctx context.Context, state State) (State, error) {
		return State{"log": "not a slice"}, nil
	})
	g.AddEdge(START, "good")
	g.AddEdge("good", "bad")
	g.AddEdge("bad", END)
	g.SetSchema(schema)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMergeTypeMismatch)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "bad", execErr.Node)
	assert.Equal(t, []string{"good"}, execErr.State["log"])
}

func TestCancellationBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var invocations atomic.Int64
	g := NewStateGraph()
	g.AddNode("loop", "", func(ctx context.Context, state State) (State, error) {
		if invocations.Add(1) == 2 {
			cancel()
		}
		return nil, nil
	})
	g.AddNode("exit", "", func(ctx context.Context, state State) (State, error) { return nil, nil })
	g.AddEdge(START, "loop")
	g.AddEdge("loop", "loop")
	g.AddEdge("exit", END)
	g.SetMaxSteps(100)

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// A running step completes; the run stops before invoking the next one.
	assert.Equal(t, int64(2), invocations.Load())
}

func TestNilUpdateLeavesStateUnchanged(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("noop", "", func(ctx context.Context, state State) (State, error) {
		return nil, nil
	})
	g.AddEdge(START, "noop")
	g.AddEdge("noop", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	res, err := runnable.Invoke(context.Background(), State{"keep": "me"})
	require.NoError(t, err)
	assert.Equal(t, "me", res["keep"])
}

func TestConfigVisibleToNodes(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("read", "", func(ctx context.Context, state State) (State, error) {
		config := GetConfig(ctx)
		if config == nil {
			return nil, errors.New("config missing from context")
		}
		return State{"user": config.Configurable["user"]}, nil
	})
	g.AddEdge(START, "read")
	g.AddEdge("read", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	res, err := runnable.InvokeWithConfig(context.Background(), nil, &Config{
		Configurable: map[string]any{"user": "alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res["user"])
}
