package engine

import "errors"

var (
	// ErrInitialization wraps failures to construct modules or start the
	// host platform.
	ErrInitialization = errors.New("engine: initialization failed")
	// ErrInvalidParameter is logged for writes to IDs outside the table.
	ErrInvalidParameter = errors.New("engine: invalid parameter")
	// ErrNotInitialized is returned by operations that need a running engine.
	ErrNotInitialized = errors.New("engine: not initialized")

	errQueueFull = errors.New("engine: command queue full")
)
