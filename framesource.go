package fluid

import (
	"context"
	"time"
)

// FrameSource paces Driver.Run, playing the role of vertical sync.
type FrameSource interface {
	// Next blocks until the next frame is due. It returns a non-nil
	// error when ctx is done or the source has no more frames.
	Next(ctx context.Context) error
}

// Ticker is a FrameSource firing at a fixed rate.
type Ticker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker firing fps times per second. Non-positive
// rates default to 60.
func NewTicker(fps int) *Ticker {
	if fps <= 0 {
		fps = 60
	}
	return &Ticker{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// Next waits for the next tick.
func (t *Ticker) Next(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

// Stop releases the ticker.
func (t *Ticker) Stop() { t.t.Stop() }

// FrameCount is a FrameSource that yields a fixed number of frames
// without waiting, for headless rendering and tests.
type FrameCount int

// Next yields until the count is used up and then reports
// ErrFramesDone.
func (n *FrameCount) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if *n <= 0 {
		return ErrFramesDone
	}
	*n--
	return nil
}
