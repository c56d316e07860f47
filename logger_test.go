package fluid

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// swapLogger installs l for the duration of the test.
func swapLogger(t *testing.T, l *slog.Logger) {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	SetLogger(l)
}

func TestLoggerSilentByDefault(t *testing.T) {
	tests := []struct {
		name   string
		logger *slog.Logger
	}{
		{"initial", Logger()},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swapLogger(t, tt.logger)
			l := Logger()
			if l == nil {
				t.Fatal("Logger() = nil, want a discarding logger")
			}
			for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
				if l.Enabled(context.Background(), level) {
					t.Errorf("Enabled(%v) = true, want false", level)
				}
			}
		})
	}
}

func TestSetLoggerWritesOutput(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	swapLogger(t, custom)

	if got := Logger(); got != custom {
		t.Fatalf("Logger() = %p, want %p", got, custom)
	}
	Logger().Info("dye reallocated", "width", 512)
	if !strings.Contains(buf.String(), "dye reallocated") {
		t.Errorf("log output = %q, want it to contain %q", buf.String(), "dye reallocated")
	}
}

type loggingContext struct {
	logger *slog.Logger
}

func (c *loggingContext) SetLogger(l *slog.Logger) { c.logger = l }

func TestLoggerPropagation(t *testing.T) {
	first := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	second := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	swapLogger(t, first)

	c := &loggingContext{}
	registerContext(c)
	if c.logger != first {
		t.Errorf("after registerContext logger = %p, want %p", c.logger, first)
	}

	SetLogger(second)
	if c.logger != second {
		t.Errorf("after SetLogger logger = %p, want %p", c.logger, second)
	}

	unregisterContext(c)
	SetLogger(first)
	if c.logger != second {
		t.Error("SetLogger reached an unregistered context")
	}

	// Values without a SetLogger method are tracked but left alone.
	plain := new(int)
	registerContext(plain)
	unregisterContext(plain)
}

func TestLoggerConcurrentAccess(t *testing.T) {
	swapLogger(t, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("tick")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
