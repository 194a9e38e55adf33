package output

import "errors"

var (
	// ErrDuplicateSheet is returned when a sheet name is appended twice
	ErrDuplicateSheet = errors.New("duplicate sheet name")

	// ErrEmptyWorkbook is returned when rendering a workbook without sheets
	ErrEmptyWorkbook = errors.New("workbook has no sheets")

	// ErrRowWidth is returned when a row does not match its sheet header
	ErrRowWidth = errors.New("row width does not match header")
)
