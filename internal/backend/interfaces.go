// Package backend defines the output-backend abstraction the control loop
// drives, and a priority-override registry that selects between the two
// concrete implementations (socket, gamma) at construction time.
package backend

import "sunsetrd/internal/interp"

// Backend is the capability set every output backend implements, so the
// control loop never branches on which concrete backend it holds.
type Backend interface {
	// Name identifies the backend for logging ("socket", "gamma").
	Name() string

	// TestConnection verifies the backend's transport is reachable without
	// applying any values.
	TestConnection() error

	// Apply pushes a concrete (temperature, gamma) pair.
	Apply(values interp.Values) error

	// Cleanup releases any transport handles, child processes, or shared
	// memory the backend holds. Called exactly once, on shutdown.
	Cleanup() error
}

// Factory constructs a Backend instance given a Context.
type Factory func(ctx *Context) (Backend, error)
