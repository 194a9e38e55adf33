package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// File is an input document handle: a display name plus raw content.
type File struct {
	Name string
	Data []byte
}

// Workbook is a read-only, fully loaded spreadsheet. Sheet contents are read
// once at open time; all later access is in memory.
type Workbook struct {
	name   string
	order  []string
	sheets map[string]*Sheet
}

// OpenWorkbook parses an xlsx document and loads every sheet's rows.
func OpenWorkbook(f File) (*Workbook, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", f.Name, err)
	}
	defer xl.Close()

	wb := &Workbook{
		name:   f.Name,
		sheets: make(map[string]*Sheet),
	}
	for _, name := range xl.GetSheetList() {
		rows, err := xl.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s of %s: %w", name, f.Name, err)
		}
		wb.order = append(wb.order, name)
		wb.sheets[name] = NewSheet(name, rows)
	}
	return wb, nil
}

// NewWorkbook assembles a workbook from already loaded sheets.
func NewWorkbook(name string, sheets ...*Sheet) *Workbook {
	wb := &Workbook{name: name, sheets: make(map[string]*Sheet)}
	for _, s := range sheets {
		wb.order = append(wb.order, s.Name())
		wb.sheets[s.Name()] = s
	}
	return wb
}

// Name returns the source document name
func (w *Workbook) Name() string {
	return w.name
}

// SheetNames returns sheet names in workbook order
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.order...)
}

// Sheet returns the named sheet, or nil when the workbook has no such sheet.
// All Sheet methods are safe to call on nil.
func (w *Workbook) Sheet(name string) *Sheet {
	return w.sheets[name]
}

// Sheet is one loaded worksheet addressed by coordinate, label, or header.
type Sheet struct {
	name  string
	rows  [][]string
	reads int
}

// NewSheet wraps raw row data
func NewSheet(name string, rows [][]string) *Sheet {
	return &Sheet{name: name, rows: rows}
}

// Name returns the sheet name
func (s *Sheet) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Reads reports how many times the sheet content has been accessed.
func (s *Sheet) Reads() int {
	if s == nil {
		return 0
	}
	return s.reads
}

// Dims returns the used row count and the widest row's column count.
func (s *Sheet) Dims() (rows, cols int) {
	if s == nil {
		return 0, 0
	}
	for _, r := range s.rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return len(s.rows), cols
}

// At returns the trimmed text at 1-based column and row, "" when absent.
func (s *Sheet) At(col, row int) string {
	if s == nil {
		return ""
	}
	s.reads++
	if row < 1 || row > len(s.rows) {
		return ""
	}
	r := s.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// Cell returns the trimmed text at an A1-style reference.
func (s *Sheet) Cell(ref string) string {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return ""
	}
	return s.At(col, row)
}

// Lookup finds the first row whose column A matches label (case-insensitive)
// and returns its column B value.
func (s *Sheet) Lookup(label string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.reads++
	for _, r := range s.rows {
		if len(r) == 0 || !strings.EqualFold(strings.TrimSpace(r[0]), label) {
			continue
		}
		if len(r) < 2 {
			return "", true
		}
		return strings.TrimSpace(r[1]), true
	}
	return "", false
}

// Records returns every non-empty row below headerRow keyed by header label.
func (s *Sheet) Records(headerRow int) []Record {
	if s == nil {
		return nil
	}
	s.reads++
	if headerRow < 1 || headerRow > len(s.rows) {
		return nil
	}
	header := make(map[string]int)
	for i, h := range s.rows[headerRow-1] {
		key := strings.ToLower(Normalize(h))
		if _, dup := header[key]; !dup && key != "" {
			header[key] = i
		}
	}

	var records []Record
	for _, r := range s.rows[headerRow:] {
		if blank(r) {
			continue
		}
		records = append(records, Record{header: header, cells: r})
	}
	return records
}

// Conform checks the used range covers maxCell.
func (s *Sheet) Conform(maxCell string) error {
	if s == nil {
		return nil
	}
	col, row, err := excelize.CellNameToCoordinates(maxCell)
	if err != nil {
		return fmt.Errorf("invalid schema cell %s for sheet %s: %w", maxCell, s.name, err)
	}
	rows, cols := s.Dims()
	if rows < row || cols < col {
		return fmt.Errorf("%w: sheet %q must reach %s, has %d rows x %d columns",
			ErrSchemaMismatch, s.name, maxCell, rows, cols)
	}
	return nil
}

// Record is a data row addressed by header label.
type Record struct {
	header map[string]int
	cells  []string
}

// Get returns the trimmed cell under the header label (case-insensitive).
func (r Record) Get(label string) string {
	i, ok := r.header[strings.ToLower(label)]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Number parses the cell under label, 0 when absent or unparseable.
func (r Record) Number(label string) float64 {
	v, _ := ParseNumber(r.Get(label))
	return v
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
