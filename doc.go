// FlowGraph - Stateful Graph Execution for Go
//
// FlowGraph is a graph-based execution engine: you declare nodes (plain Go
// functions over a shared state), wire them with fixed and conditional
// edges, compile the graph, and invoke it. Per-field reducers control how
// each node's partial update merges into the state, a pluggable checkpoint
// store makes runs durable and resumable by thread, and a tracer exposes
// every step for observability.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/flowgraph/flowgraph
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/flowgraph/flowgraph/graph"
//	)
//
//	func main() {
//		g := graph.NewStateGraph()
//
//		schema := graph.NewMapSchema()
//		schema.RegisterReducer("log", graph.AppendReducer)
//		g.SetSchema(schema)
//
//		g.AddNode("greet", "", func(ctx context.Context, state graph.State) (graph.State, error) {
//			return graph.State{"log": []string{"hello"}}, nil
//		})
//		g.AddEdge(graph.START, "greet")
//		g.AddEdge("greet", graph.END)
//
//		runnable, _ := g.Compile()
//		result, _ := runnable.Invoke(context.Background(), nil)
//		fmt.Println(result["log"])
//	}
//
// # Packages
//
//   - graph: the core engine (schema, compilation, execution, tracing,
//     visualization)
//   - store: the checkpoint model, with memory, file, redis, sqlite and
//     postgres backends in subpackages
//   - prebuilt: ready-made agent graphs over langchaingo models and tools
//   - tool: example tools implementing the langchaingo tools.Tool interface
//   - log: the leveled logging interface used for engine warnings
//
// See the examples directory for runnable programs covering basic graphs,
// conditional routing, chat, tool use, checkpointing, visualization and
// observability.
package flowgraph
