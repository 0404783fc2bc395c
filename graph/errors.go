package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when the active node is missing from the registry.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrUnroutableDestination is returned when a routing function produces a
	// name with no corresponding destination.
	ErrUnroutableDestination = errors.New("unroutable destination")

	// ErrMergeTypeMismatch is returned when a reducer is given an update whose
	// shape is incompatible with the declared merge behavior.
	ErrMergeTypeMismatch = errors.New("merge type mismatch")

	// ErrExecutionLimitExceeded is returned when a run reaches its step cap
	// without reaching END.
	ErrExecutionLimitExceeded = errors.New("execution limit exceeded")
)

// CompilationError reports every structural problem found while compiling a
// graph. A graph that fails to compile is unusable; there is no partial
// compilation.
type CompilationError struct {
	Problems []string
}

func (e *CompilationError) Error() string {
	if len(e.Problems) == 1 {
		return "graph compilation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("graph compilation failed: %d problems: %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// ExecutionError annotates a runtime failure with the step index and node
// name at which it occurred. State carries the state as of the last
// completed merge, so an update applied in the failing step remains
// observable to the caller.
type ExecutionError struct {
	Step  int
	Node  string
	State State
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("step %d (node %s): %v", e.Step, e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
