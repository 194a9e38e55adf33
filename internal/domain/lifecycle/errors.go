package lifecycle

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the current state
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrGuardFailed is returned when every guarded transition for a trigger is refused
	ErrGuardFailed = errors.New("lifecycle guard failed")
)
