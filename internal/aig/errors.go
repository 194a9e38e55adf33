package aig

import "errors"

var (
	// ErrUnknownOperator is returned when a rule's comparison operator is not recognized
	ErrUnknownOperator = errors.New("unknown comparison operator")

	// ErrInvalidSheet is returned when a rule's sheet index is outside 1..SheetCount
	ErrInvalidSheet = errors.New("invalid aig sheet index")

	// ErrMissingSheet is returned when no rule covers a sheet index
	ErrMissingSheet = errors.New("aig sheet has no rule")

	// ErrInvalidRule is returned when a rule lacks a label, lookup or reference key
	ErrInvalidRule = errors.New("invalid aig rule")
)
