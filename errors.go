package mdview

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("engine closed")

	// ErrRendererNotReady indicates the document's markdown converter
	// entry point has not been registered yet. Renders that fail with
	// this error are deferred and retried, never dropped.
	ErrRendererNotReady = errors.New("renderer not ready")

	// ErrMalformedMessage indicates an inbound document message is
	// missing required fields or carries an unknown kind.
	ErrMalformedMessage = errors.New("malformed message")
)
