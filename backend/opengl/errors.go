package opengl

import "errors"

var (
	// ErrUnsupportedFormat is returned by CreateTexture for formats the
	// driver cannot store or render to.
	ErrUnsupportedFormat = errors.New("opengl: unsupported texture format")

	// ErrInvalidSize is returned for zero, negative or oversized textures.
	ErrInvalidSize = errors.New("opengl: invalid texture size")

	// ErrUnknownResource is returned when an ID does not name a live object.
	ErrUnknownResource = errors.New("opengl: unknown resource")

	// ErrIncompleteFramebuffer is returned when a texture cannot be
	// attached as a color target.
	ErrIncompleteFramebuffer = errors.New("opengl: incomplete framebuffer")
)
