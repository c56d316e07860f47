package fluid

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for fluid and the GPU contexts of live
// drivers. By default, fluid produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by fluid:
//   - [slog.LevelDebug]: format fallbacks, per-frame diagnostics
//   - [slog.LevelInfo]: lifecycle events (framebuffers allocated, activation)
//   - [slog.LevelWarn]: shader compile/link failures, recovered tick panics
//
// Example:
//
//	fluid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	contextsMu.Lock()
	defer contextsMu.Unlock()
	for c := range contexts {
		propagateLogger(c, l)
	}
}

// Logger returns the current logger used by fluid.
// Sub-packages (integration/fluidcanvas, cmd/fluid) call this to share
// the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backend contexts that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	contextsMu sync.Mutex
	contexts   = make(map[any]struct{})
)

// registerContext makes c receive the current logger and every later
// SetLogger call until unregisterContext.
func registerContext(c any) {
	contextsMu.Lock()
	defer contextsMu.Unlock()
	contexts[c] = struct{}{}
	propagateLogger(c, Logger())
}

func unregisterContext(c any) {
	contextsMu.Lock()
	defer contextsMu.Unlock()
	delete(contexts, c)
}

// propagateLogger passes the logger to a context if it implements
// the loggerSetter interface.
func propagateLogger(c any, l *slog.Logger) {
	if ls, ok := c.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
