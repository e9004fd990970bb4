package generation

import "errors"

// Failure classification shared by all adapters. The orchestrator treats
// every one of these as potentially transient; the distinction matters for
// logging and for the health/contract surfaces.
var (
	// ErrTimeout is returned when a call did not finish within its budget.
	ErrTimeout = errors.New("generation call timed out")

	// ErrServiceUnavailable is returned when the backend responded with an
	// error or is unreachable.
	ErrServiceUnavailable = errors.New("generation backend unavailable")

	// ErrInvalidResponse is returned when the backend answered but the
	// response cannot be used (empty, malformed, undecodable).
	ErrInvalidResponse = errors.New("invalid response from generation backend")

	// ErrInvalidConfig is returned when an adapter is constructed with an
	// unusable configuration.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
