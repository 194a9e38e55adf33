package sheet

import "errors"

var (
	// ErrHeaderDrift is returned when a layout's accessors do not match its header
	ErrHeaderDrift = errors.New("sheet header and accessors differ")

	// ErrNotCollected is returned when a manager reads a dependency that has not collected
	ErrNotCollected = errors.New("dependency not collected")

	// ErrDependencyOrder is returned when a manager is registered before a dependency
	ErrDependencyOrder = errors.New("dependency registered after dependent")

	// ErrDuplicateManager is returned when two managers share a sheet name
	ErrDuplicateManager = errors.New("duplicate sheet manager")

	// ErrMissingSource is returned when a required input model is absent
	ErrMissingSource = errors.New("missing source model")
)
