package native

import "errors"

// Package errors.
var (
	// ErrNoAdapter is returned when no HAL backend exposes an adapter.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrNoHALDevice is returned when a device provider does not expose
	// its HAL device and queue.
	ErrNoHALDevice = errors.New("native: provider does not expose a HAL device")

	// ErrUnsupportedFormat is returned by CreateTexture for formats the
	// device cannot sample and render to.
	ErrUnsupportedFormat = errors.New("native: unsupported texture format")

	// ErrInvalidSize is returned for zero, negative or oversized textures
	// and read regions.
	ErrInvalidSize = errors.New("native: invalid size")

	// ErrUnknownResource is returned when an ID does not name a live object.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrDestroyed is returned by operations on a destroyed context.
	ErrDestroyed = errors.New("native: context destroyed")
)
