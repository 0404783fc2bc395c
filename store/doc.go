// Package store defines the checkpoint model and persistence interface
// consumed by the graph executor, with pluggable backends in subpackages:
// memory (default), file, redis, sqlite and postgres.
package store // import "github.com/flowgraph/flowgraph/store"
