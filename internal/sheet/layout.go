package sheet

import (
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/output"
)

// Accessor extracts one column's value from a row source
type Accessor[T any] func(T) output.Value

// Layout is a sheet's header with exactly one accessor per column.
type Layout[T any] struct {
	header  []string
	columns map[string]Accessor[T]
}

// NewLayout validates that header and accessors name the same columns.
func NewLayout[T any](header []string, columns map[string]Accessor[T]) (*Layout[T], error) {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrHeaderDrift, h)
		}
		seen[h] = true
		if columns[h] == nil {
			return nil, fmt.Errorf("%w: no accessor for %q", ErrHeaderDrift, h)
		}
	}
	for name := range columns {
		if !seen[name] {
			return nil, fmt.Errorf("%w: accessor %q not in header", ErrHeaderDrift, name)
		}
	}
	return &Layout[T]{header: append([]string(nil), header...), columns: columns}, nil
}

func mustLayout[T any](header []string, columns map[string]Accessor[T]) *Layout[T] {
	l, err := NewLayout(header, columns)
	if err != nil {
		panic(err)
	}
	return l
}

// Header returns the column labels in order
func (l *Layout[T]) Header() []string {
	return append([]string(nil), l.header...)
}

// Row extracts every column of v in header order
func (l *Layout[T]) Row(v T) []output.Value {
	row := make([]output.Value, len(l.header))
	for i, h := range l.header {
		row[i] = l.columns[h](v)
	}
	return row
}

// Sheet builds a named output sheet with one row per item
func (l *Layout[T]) Sheet(name string, items []T) (*output.Sheet, error) {
	s := output.NewSheet(name, l.header)
	for _, item := range items {
		if err := s.AddRow(l.Row(item)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
