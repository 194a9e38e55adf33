package generator

import "errors"

// Generation errors
var (
	ErrGeneration = errors.New("template generation failed")
	ErrNoInput    = errors.New("input document is empty")
)
