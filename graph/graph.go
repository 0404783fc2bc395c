package graph

import (
	"context"
	"maps"
)

const (
	// START is the sentinel marker for the graph entry. AddEdge(START, "a")
	// is equivalent to SetEntryPoint("a").
	START = "START"

	// END is the sentinel marker that terminates execution.
	END = "END"
)

// State is the mapping of named fields threaded through graph execution.
// Nodes receive the current state and return a partial update; how each
// field of the update combines with the current value is decided by the
// schema's reducers.
type State = map[string]any

// NodeFunc is the computation owned by a node. It must treat the incoming
// state as read-only and return only the fields it wants to change.
type NodeFunc func(ctx context.Context, state State) (State, error)

// RouteFunc picks the next destination for a conditional edge. The returned
// name is resolved through the edge's path map when one was given, otherwise
// it must be a declared node name or END.
type RouteFunc func(ctx context.Context, state State) string

// Node is a named unit of computation in the graph.
type Node struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is invoked with the current state and returns a partial update.
	Function NodeFunc
}

// Edge is a fixed directed transition between two nodes.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points, or END.
	To string
}

// conditionalEdge routes at runtime. When PathMap is non-nil the route
// function's return value is looked up in it; a miss is an
// ErrUnroutableDestination at the step it was evaluated.
type conditionalEdge struct {
	Route   RouteFunc
	PathMap map[string]string
}

// cloneState returns a shallow copy so a caller's map is never mutated by
// the run that received it.
func cloneState(s State) State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}
