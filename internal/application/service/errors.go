package service

import "errors"

// Service errors
var (
	// ErrConfirmationRequired is returned when AIG prescribers are missing
	// from the practitioner reference and the caller has not confirmed
	ErrConfirmationRequired = errors.New("missing practitioners require confirmation")

	// ErrInvalidPractitioner is returned for a practitioner that cannot be stored
	ErrInvalidPractitioner = errors.New("invalid practitioner")
)
