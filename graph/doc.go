// Package graph provides a minimal state-graph execution engine: named
// nodes that produce partial state updates, fixed and conditional edges,
// reducer-based state merging, checkpointing and per-step tracing.
//
// # Core Concepts
//
// A StateGraph is built from nodes and edges, given a schema that declares
// how each state field merges, and compiled into an immutable Runnable.
// Execution walks a single active node from the entry point until END,
// merging every node's partial update into the running state.
//
// # Example
//
//	schema := graph.NewMapSchema()
//	schema.RegisterReducer("log", graph.AppendReducer)
//
//	g := graph.NewStateGraph()
//	g.SetSchema(schema)
//	g.AddNode("greet", "adds a greeting", func(ctx context.Context, state graph.State) (graph.State, error) {
//		return graph.State{"log": []string{"hello"}, "count": 1}, nil
//	})
//	g.AddEdge(graph.START, "greet")
//	g.AddEdge("greet", graph.END)
//
//	runnable, err := g.Compile()
//	if err != nil {
//		// the CompilationError lists every structural problem
//	}
//	final, err := runnable.Invoke(ctx, graph.State{"log": []string{}})
//
// Conditional edges route at runtime through a path map:
//
//	g.AddConditionalEdges("decide", func(ctx context.Context, state graph.State) string {
//		if state["ready"].(bool) {
//			return "done"
//		}
//		return "retry"
//	}, map[string]string{"done": graph.END, "retry": "decide"})
//
// Runs are capped by a step limit (DefaultMaxSteps unless overridden), so a
// cycle that never reaches END fails with ErrExecutionLimitExceeded instead
// of hanging. Runtime failures come back as *ExecutionError with the step
// index and node name at which they occurred.
package graph // import "github.com/flowgraph/flowgraph/graph"
