// Package redis provides a checkpoint store backed by Redis, suitable for
// sharing thread state across processes.
package redis // import "github.com/flowgraph/flowgraph/store/redis"
