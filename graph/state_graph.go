package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/flowgraph/flowgraph/log"
)

// StateGraph is the mutable builder for a state-based graph. Nodes, edges
// and the schema are registered here; Compile validates the structure and
// produces an immutable Runnable.
type StateGraph struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node

	// edges holds the fixed transitions between nodes
	edges []Edge

	// conditionalEdges maps a source node to its runtime routing
	conditionalEdges map[string]conditionalEdge

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// schema defines the state structure and merge logic
	schema StateSchema

	// maxSteps caps a single run; DefaultMaxSteps when zero
	maxSteps int

	// checkpoint holds the optional persistence configuration
	checkpoint CheckpointConfig

	// tracer receives per-step events, best effort
	tracer *Tracer

	// logger receives non-fatal warnings (checkpoint store failures)
	logger log.Logger

	// duplicates records node names registered more than once, reported at compile
	duplicates []string
}

// NewStateGraph creates a new, empty StateGraph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:            make(map[string]Node),
		conditionalEdges: make(map[string]conditionalEdge),
	}
}

// AddNode registers a node with the given name, description and function.
// Registering the same name twice is a compilation error.
func (g *StateGraph) AddNode(name string, description string, fn NodeFunc) {
	if _, exists := g.nodes[name]; exists {
		g.duplicates = append(g.duplicates, name)
		return
	}
	g.nodes[name] = Node{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a fixed edge between the "from" and "to" nodes. Using START
// as the source sets the entry point; END as the destination terminates
// execution.
func (g *StateGraph) AddEdge(from, to string) {
	if from == START {
		g.entryPoint = to
		return
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdges adds a runtime-routed edge from a node. The route
// function's return value is looked up in pathMap to find the destination;
// a pathMap value may be END. With a nil pathMap the route function's
// return value is used as the destination name directly.
func (g *StateGraph) AddConditionalEdges(from string, route RouteFunc, pathMap map[string]string) {
	g.conditionalEdges[from] = conditionalEdge{Route: route, PathMap: pathMap}
}

// SetEntryPoint sets the entry point node name for the graph.
func (g *StateGraph) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph) SetSchema(schema StateSchema) {
	g.schema = schema
}

// SetMaxSteps caps the number of node invocations per run.
func (g *StateGraph) SetMaxSteps(n int) {
	g.maxSteps = n
}

// SetCheckpointStore attaches a checkpoint store. When required is true a
// failing save aborts the run; otherwise failures are logged and execution
// continues.
func (g *StateGraph) SetCheckpointStore(store CheckpointStore, required bool) {
	g.checkpoint = CheckpointConfig{Store: store, Required: required}
}

// SetTracer attaches a tracer that receives a StepEvent per executed step.
func (g *StateGraph) SetTracer(tracer *Tracer) {
	g.tracer = tracer
}

// SetLogger replaces the logger used for non-fatal warnings.
func (g *StateGraph) SetLogger(logger log.Logger) {
	g.logger = logger
}

// Runnable is a compiled, immutable graph. It is safe for concurrent Invoke
// calls; every run owns its own state.
type Runnable struct {
	graph *StateGraph
}

// Compile validates the graph structure and returns a Runnable. All
// structural problems are collected into a single CompilationError; a graph
// that fails to compile is not partially usable.
func (g *StateGraph) Compile() (*Runnable, error) {
	var problems []string

	if g.entryPoint == "" {
		problems = append(problems, ErrEntryPointNotSet.Error())
	} else if _, ok := g.nodes[g.entryPoint]; !ok {
		problems = append(problems, fmt.Sprintf("entry point %q is not a declared node", g.entryPoint))
	}

	for _, name := range g.duplicates {
		problems = append(problems, fmt.Sprintf("duplicate node name %q", name))
	}
	for name := range g.nodes {
		if name == START || name == END {
			problems = append(problems, fmt.Sprintf("node name %q is reserved", name))
		}
	}

	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From]; !ok {
			problems = append(problems, fmt.Sprintf("edge %s -> %s references undeclared source", edge.From, edge.To))
		}
		if edge.To != END {
			if _, ok := g.nodes[edge.To]; !ok {
				problems = append(problems, fmt.Sprintf("edge %s -> %s references undeclared destination", edge.From, edge.To))
			}
		}
	}

	for from, ce := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("conditional edge from undeclared node %q", from))
		}
		for key, to := range ce.PathMap {
			if to != END {
				if _, ok := g.nodes[to]; !ok {
					problems = append(problems, fmt.Sprintf("conditional edge from %s maps %q to undeclared node %q", from, key, to))
				}
			}
		}
	}

	if len(problems) == 0 && !g.hasPathToEnd() {
		problems = append(problems, "no edge or route reaches END")
	}

	if len(problems) > 0 {
		return nil, &CompilationError{Problems: problems}
	}

	return &Runnable{graph: g}, nil
}

// hasPathToEnd reports whether the graph can terminate at all: some fixed
// edge or path-map entry targets END, or an unmapped conditional edge exists
// (those can route anywhere at runtime, including END). Whether a particular
// run actually gets there is a runtime question, bounded by the step limit;
// a loop node whose escape hatch lives elsewhere in the graph still
// compiles.
func (g *StateGraph) hasPathToEnd() bool {
	for _, edge := range g.edges {
		if edge.To == END {
			return true
		}
	}
	for _, ce := range g.conditionalEdges {
		if ce.PathMap == nil {
			return true
		}
		for _, to := range ce.PathMap {
			if to == END {
				return true
			}
		}
	}
	return false
}

// Invoke executes the compiled graph with the given input state.
func (r *Runnable) Invoke(ctx context.Context, initialState State) (State, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the compiled graph with the given input state
// and per-run config. On a runtime failure the returned error is an
// *ExecutionError carrying the step index, node name and the state as of
// the last completed merge; previously checkpointed state stays intact.
func (r *Runnable) InvokeWithConfig(ctx context.Context, initialState State, config *Config) (State, error) {
	g := r.graph

	state := cloneState(initialState)
	if state == nil {
		if g.schema != nil {
			state = g.schema.Init()
		} else {
			state = make(State)
		}
	}

	maxSteps := g.maxSteps
	var threadID string
	if config != nil {
		if config.MaxSteps > 0 {
			maxSteps = config.MaxSteps
		}
		threadID = config.ThreadID
		ctx = WithConfig(ctx, config)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	run := newRunState(g, threadID, config)

	// Resume: restore the thread's latest snapshot and merge the caller's
	// input on top of it before executing step 0.
	resumed, err := run.restore(ctx, state)
	if err != nil {
		return nil, err
	}
	state = resumed

	active := g.entryPoint
	for step := 0; active != END; step++ {
		if step >= maxSteps {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: ErrExecutionLimitExceeded}
		}

		node, ok := g.nodes[active]
		if !ok {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: fmt.Errorf("%w: %s", ErrNodeNotFound, active)}
		}

		input := cloneState(state)
		started := time.Now()
		update, err := node.Function(ctx, state)
		if err != nil {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: fmt.Errorf("node %s: %w", active, err)}
		}

		// Commit the merge only on success so the error path reports the
		// state as of the last completed merge.
		merged, err := r.merge(state, update)
		if err != nil {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: err}
		}
		state = merged

		if err := run.save(ctx, step, active, state); err != nil {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: err}
		}

		g.emitStep(ctx, StepEvent{
			ThreadID:  run.threadID,
			StepIndex: step,
			NodeName:  active,
			Input:     input,
			Update:    update,
			Duration:  time.Since(started),
		})

		// Cancellation point: the merge is complete and, if a store is
		// attached, already durable.
		if err := ctx.Err(); err != nil {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: err}
		}

		next, err := r.resolveNext(ctx, active, state)
		if err != nil {
			return state, &ExecutionError{Step: step, Node: active, State: state, Err: err}
		}
		active = next
	}

	return state, nil
}

// merge folds a node's partial update into the running state using the
// schema. Without a schema every field is replaced.
func (r *Runnable) merge(current State, update State) (State, error) {
	if update == nil {
		return current, nil
	}
	if r.graph.schema != nil {
		return r.graph.schema.Update(current, update)
	}
	merged := cloneState(current)
	for field, value := range update {
		merged[field] = value
	}
	return merged, nil
}

// resolveNext consults the edge table for the node that just ran.
// Conditional routing wins over fixed edges for the same source.
func (r *Runnable) resolveNext(ctx context.Context, from string, state State) (string, error) {
	if ce, ok := r.graph.conditionalEdges[from]; ok {
		name := ce.Route(ctx, state)
		if ce.PathMap != nil {
			to, ok := ce.PathMap[name]
			if !ok {
				return "", fmt.Errorf("%w: route from %s returned %q", ErrUnroutableDestination, from, name)
			}
			return to, nil
		}
		if name == END {
			return END, nil
		}
		if _, ok := r.graph.nodes[name]; !ok {
			return "", fmt.Errorf("%w: route from %s returned %q", ErrUnroutableDestination, from, name)
		}
		return name, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

// Graph returns the underlying graph for read-only inspection, as consumed
// by the visualization exporter.
func (r *Runnable) Graph() *StateGraph {
	return r.graph
}
