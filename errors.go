package fluid

import "errors"

var (
	// ErrNoContext is returned when a nil GPU context is passed in.
	ErrNoContext = errors.New("fluid: nil GPU context")

	// ErrInvalidConfig is returned by Config.Validate and LoadConfig.
	ErrInvalidConfig = errors.New("fluid: invalid config")

	// ErrClosed is returned by operations on a closed Driver.
	ErrClosed = errors.New("fluid: driver closed")

	// ErrTargetUnavailable is returned when a render target cannot be
	// allocated because its format is not supported.
	ErrTargetUnavailable = errors.New("fluid: render target format unavailable")
)

// ErrFramesDone is returned by a FrameCount that has no frames left.
var ErrFramesDone = errors.New("fluid: no frames left")
