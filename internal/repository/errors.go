package repository

import "errors"

// Repository errors
var (
	ErrNotFound = errors.New("record not found")
)
