// Package log provides a simple, leveled logging interface for graph
// execution.
//
// The package supports five log levels in order of increasing severity:
// LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError and
// LogLevelNone (which disables output entirely).
//
// # Example Usage
//
//	// Create a logger with INFO level writing to stderr
//	logger := log.NewCustomLogger(os.Stderr, log.LogLevelInfo)
//
//	logger.Info("Run starting")
//	logger.Debug("Merging update: %v", update)
//	logger.Warn("Checkpoint save failed: %v", err)
//	logger.Error("Node failed: %v", err)
//
// # golog Integration
//
// For users who prefer github.com/kataras/golog, a minimal wrapper is
// provided:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[MyApp] ")
//
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// # Custom Loggers
//
// Any type implementing the Logger interface can be passed to
// graph.StateGraph.SetLogger or installed globally with
// SetDefaultLogger. The DefaultLogger implementation is safe for
// concurrent use.
package log
