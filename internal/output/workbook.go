package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a header row followed by data rows of the same width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]Value
	// Wrap lists header columns rendered with wrapped text
	Wrap []string
}

// NewSheet creates an empty sheet with a header
func NewSheet(name string, header []string) *Sheet {
	return &Sheet{Name: name, Header: append([]string(nil), header...)}
}

// AddRow appends a row; its width must match the header.
func (s *Sheet) AddRow(row []Value) error {
	if len(row) != len(s.Header) {
		return fmt.Errorf("%w: sheet %s has %d columns, row has %d", ErrRowWidth, s.Name, len(s.Header), len(row))
	}
	s.Rows = append(s.Rows, row)
	return nil
}

// Column returns the index of a header label, -1 when absent.
func (s *Sheet) Column(label string) int {
	for i, h := range s.Header {
		if h == label {
			return i
		}
	}
	return -1
}

// Value returns the cell of data row i (0-based) under label
func (s *Sheet) Value(i int, label string) Value {
	c := s.Column(label)
	if c < 0 || i < 0 || i >= len(s.Rows) {
		return Null()
	}
	return s.Rows[i][c]
}

// Workbook is an ordered set of uniquely named sheets.
type Workbook struct {
	sheets []*Sheet
}

// NewWorkbook creates an empty workbook
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// Append adds a sheet at the end
func (w *Workbook) Append(s *Sheet) error {
	if w.Sheet(s.Name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateSheet, s.Name)
	}
	w.sheets = append(w.sheets, s)
	return nil
}

// Sheet returns the named sheet or nil
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Names returns sheet names in order
func (w *Workbook) Names() []string {
	names := make([]string, 0, len(w.sheets))
	for _, s := range w.sheets {
		names = append(names, s.Name)
	}
	return names
}

// Reorder keeps only the sheets named in order, in that order. Names without
// a sheet are skipped.
func (w *Workbook) Reorder(order []string) {
	kept := make([]*Sheet, 0, len(order))
	for _, name := range order {
		if s := w.Sheet(name); s != nil {
			kept = append(kept, s)
		}
	}
	w.sheets = kept
}

const defaultSheet = "Sheet1"

// Render builds an xlsx file from the model. The caller closes the file.
func (w *Workbook) Render() (*excelize.File, error) {
	if len(w.sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	f := excelize.NewFile()

	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create wrap style: %w", err)
	}

	for i, s := range w.sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to name sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", s.Name, err)
		}
		if err := renderSheet(f, s, wrapStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to render sheet %s: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Bytes renders the workbook to xlsx bytes
func (w *Workbook) Bytes() ([]byte, error) {
	f, err := w.Render()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSheet(f *excelize.File, s *Sheet, wrapStyle int) error {
	header := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}

	for r, row := range s.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := setCell(f, s.Name, cell, v); err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	for _, label := range s.Wrap {
		c := s.Column(label)
		if c < 0 || len(s.Rows) == 0 {
			continue
		}
		first, _ := excelize.CoordinatesToCellName(c+1, 2)
		last, _ := excelize.CoordinatesToCellName(c+1, len(s.Rows)+1)
		if err := f.SetCellStyle(s.Name, first, last, wrapStyle); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, v Value) error {
	switch v.Kind() {
	case KindString:
		return f.SetCellStr(sheet, cell, v.Text())
	case KindNumber:
		return f.SetCellFloat(sheet, cell, v.Float(), -1, 64)
	case KindBool:
		return f.SetCellBool(sheet, cell, v.Truth())
	case KindFormula:
		return f.SetCellFormula(sheet, cell, strings.TrimPrefix(v.Text(), "="))
	default:
		return nil
	}
}
