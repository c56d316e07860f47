package backend

import (
	"fmt"
	"sync"
)

// Factory creates a new backend instance.
type Factory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > OpenGL > Software (Software is the fallback).
	backendPriority = []string{BackendNative, BackendOpenGL, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// ordered returns the registered factories in selection order.
func ordered() []Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Factory, 0, len(backends))
	seen := make(map[string]bool, len(backendPriority))
	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			out = append(out, factory)
			seen[name] = true
		}
	}
	for name, factory := range backends {
		if !seen[name] {
			out = append(out, factory)
		}
	}
	return out
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Backend {
	for _, factory := range ordered() {
		if b := factory(); b != nil {
			return b
		}
	}
	return nil
}

// Open returns the named backend, initialized.
func Open(name string) (Backend, error) {
	b := Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return b, nil
}

// InitDefault initializes the first backend, in priority order, whose
// Init succeeds. A backend failing Init (no GPU, no display) is skipped.
func InitDefault() (Backend, error) {
	var lastErr error
	for _, factory := range ordered() {
		b := factory()
		if b == nil {
			continue
		}
		if err := b.Init(); err != nil {
			logger().Debug("backend unavailable", "backend", b.Name(), "err", err)
			lastErr = err
			continue
		}
		logger().Info("backend selected", "backend", b.Name())
		return b, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, lastErr)
	}
	return nil, ErrBackendNotAvailable
}
