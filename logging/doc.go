// Package logging provides a minimal logging interface and adapters for actionweave.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the dispatch loop, actions and model adapters use for observability.
// Arguments after the message are slog-style key/value pairs. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - StructuredLogger, a slog-backed logger with run/component context and
//     helpers for action and model call records
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	w, err := actionweave.New(llm, registry, func(o *actionweave.Options) { o.Logger = logger })
package logging
