package fluid

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFrameCount(t *testing.T) {
	n := FrameCount(3)
	ctx := context.Background()
	for i := range 3 {
		if err := n.Next(ctx); err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
	}
	if err := n.Next(ctx); !errors.Is(err, ErrFramesDone) {
		t.Errorf("Next() after 3 frames error = %v, want %v", err, ErrFramesDone)
	}
}

func TestFrameCountCanceled(t *testing.T) {
	n := FrameCount(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want %v", err, context.Canceled)
	}
	if n != 5 {
		t.Errorf("count = %d after canceled Next, want 5", n)
	}
}

func TestTicker(t *testing.T) {
	tk := NewTicker(1000)
	defer tk.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for range 3 {
		if err := tk.Next(ctx); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
}

func TestTickerCanceled(t *testing.T) {
	tk := NewTicker(0)
	defer tk.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tk.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want %v", err, context.Canceled)
	}
}
