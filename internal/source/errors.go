package source

import "errors"

// Domain errors for source document parsing
var (
	// Document errors
	ErrNoTable           = errors.New("document contains no table")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrMissingPart       = errors.New("document part not found")

	// Schema errors
	ErrSchemaMismatch = errors.New("sheet is smaller than its schema")
)
