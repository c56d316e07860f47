package software

import "errors"

var (
	// ErrUnsupportedFormat is returned by CreateTexture for formats the
	// context was configured not to support.
	ErrUnsupportedFormat = errors.New("software: unsupported texture format")

	// ErrInvalidSize is returned for zero, negative or oversized textures.
	ErrInvalidSize = errors.New("software: invalid texture size")

	// ErrUnknownResource is returned when an ID does not name a live object.
	ErrUnknownResource = errors.New("software: unknown resource")

	// ErrNoKernel is returned when a shader label has no CPU implementation.
	ErrNoKernel = errors.New("software: no kernel for shader")
)
