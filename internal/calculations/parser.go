package calculations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/source"
	"go.uber.org/zap"
)

// Section identifiers for pharmacy-wide aggregates
const (
	SectionTotals      = "Aggregate Totals"
	SectionPercentages = "Aggregate Percentages"
	SectionVolume      = "Prescription Counts"

	drugBlockRows = 4
	paddingMarker = "****"
	periodMarker  = " Calculations "
)

var pharmacyIDPattern = regexp.MustCompile(`[A-Z]{2}\d{7}`)

// section is one registry entry: the identifier matched against a row label,
// the number of rows the collector consumes, and the collector itself.
type section struct {
	id      string
	rows    int
	collect func(doc *Document, rows [][]string)
}

// Parser walks a calculations table once, dispatching labeled sections.
type Parser struct {
	drugs  []string
	logger *zap.Logger
}

// NewParser creates a parser recognizing the given monitored drug names.
func NewParser(drugs []string, logger *zap.Logger) *Parser {
	return &Parser{drugs: drugs, logger: logger}
}

// Load reads the first table of a calculations document and parses it.
func Load(f source.File, drugs []string, logger *zap.Logger) (*Document, error) {
	table, err := source.ReadFirstTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load calculations %s: %w", f.Name, err)
	}
	doc := NewParser(drugs, logger).Parse(table.Rows)

	logger.Info("Calculations document loaded",
		zap.String("file", f.Name),
		zap.String("pharmacy", doc.PharmacyName),
		zap.String("period", doc.Period),
		zap.Int("drug_blocks", doc.DrugCount()))
	return doc, nil
}

// Parse builds a Document from table rows.
func (p *Parser) Parse(rows [][]string) *Document {
	doc := newDocument()
	if len(rows) > 0 {
		p.parseHeader(doc, rows[0])
	}
	if len(rows) > 1 {
		doc.Location = firstNonBlank(rows[1])
	}

	remaining := p.registry()
	for i := 2; i < len(rows) && len(remaining) > 0; {
		label := firstNonBlank(rows[i])
		if label == "" || strings.Contains(label, paddingMarker) {
			i++
			continue
		}
		idx := match(label, remaining)
		if idx < 0 {
			i++
			continue
		}

		sec := remaining[idx]
		end := i + sec.rows
		if end > len(rows) {
			end = len(rows)
		}
		sec.collect(doc, rows[i:end])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		i = end
	}

	if len(remaining) > 0 {
		missing := make([]string, 0, len(remaining))
		for _, s := range remaining {
			missing = append(missing, s.id)
		}
		p.logger.Warn("Calculations sections not found", zap.Strings("sections", missing))
	}
	return doc
}

func (p *Parser) parseHeader(doc *Document, row []string) {
	text := firstNonBlank(row)
	if loc := pharmacyIDPattern.FindStringIndex(text); loc != nil {
		doc.PharmacyName = strings.TrimSpace(text[:loc[0]])
		doc.PharmacyID = text[loc[0]:loc[1]]
	} else if before, _, ok := strings.Cut(text, periodMarker); ok {
		doc.PharmacyName = strings.TrimSpace(before)
	}
	if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
		doc.PharmacyID = strings.TrimSpace(row[1])
	}
	if parts := strings.SplitN(text, periodMarker, 2); len(parts) == 2 {
		doc.Period = strings.TrimSpace(parts[1])
	}
}

func (p *Parser) registry() []section {
	secs := []section{
		{id: SectionTotals, rows: 1, collect: func(doc *Document, rows [][]string) {
			r := rows[0]
			doc.Totals = &Totals{
				Prescriptions:         p.number(r, 1),
				Controlled:            p.number(r, 2),
				DosageUnits:           p.number(r, 3),
				ControlledDosageUnits: p.number(r, 4),
			}
		}},
		{id: SectionPercentages, rows: 1, collect: func(doc *Document, rows [][]string) {
			r := rows[0]
			doc.Percentages = &Percentages{
				Controlled:     p.percent(r, 1),
				Cash:           p.percent(r, 2),
				ControlledCash: p.percent(r, 3),
				OutOfState:     p.percent(r, 4),
			}
		}},
		{id: SectionVolume, rows: 1, collect: func(doc *Document, rows [][]string) {
			r := rows[0]
			doc.Volume = &Volume{
				PerDay:           p.number(r, 1),
				PerMonth:         p.number(r, 2),
				ControlledPerDay: p.number(r, 3),
				ControlledMonth:  p.number(r, 4),
			}
		}},
	}

	seen := make(map[string]bool)
	for _, drug := range p.drugs {
		key := strings.ToLower(strings.TrimSpace(drug))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		secs = append(secs, section{id: drug, rows: drugBlockRows, collect: func(doc *Document, rows [][]string) {
			stats := DrugStats{}
			fields := []*float64{
				&stats.TotalDosageUnits,
				&stats.DosageUnitsPerMonth,
				&stats.ExpectedPerMonth,
				&stats.VarianceMultiplier,
			}
			for i, r := range rows {
				*fields[i] = p.number(r, 1)
			}
			doc.drugs[key] = stats
		}})
	}
	return secs
}

// number parses cell idx of row; unparseable values are 0 and logged.
func (p *Parser) number(row []string, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	v, ok := source.ParseNumber(row[idx])
	if !ok && strings.TrimSpace(row[idx]) != "" {
		p.logger.Debug("Unparseable calculations value",
			zap.String("label", firstNonBlank(row)),
			zap.String("value", row[idx]))
	}
	return v
}

// percent parses cell idx as a fraction; only text with a '%' sign is
// scaled down.
func (p *Parser) percent(row []string, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	v, ok := source.ParsePercent(row[idx])
	if !ok && strings.TrimSpace(row[idx]) != "" {
		p.logger.Debug("Unparseable calculations percentage",
			zap.String("label", firstNonBlank(row)),
			zap.String("value", row[idx]))
	}
	return v
}

// match returns the index of the longest remaining identifier contained in
// label, or -1.
func match(label string, remaining []section) int {
	lower := strings.ToLower(label)
	best := -1
	for i, s := range remaining {
		if !strings.Contains(lower, strings.ToLower(s.id)) {
			continue
		}
		if best < 0 || len(s.id) > len(remaining[best].id) {
			best = i
		}
	}
	return best
}

func firstNonBlank(row []string) string {
	for _, c := range row {
		if t := strings.TrimSpace(c); t != "" {
			return t
		}
	}
	return ""
}
