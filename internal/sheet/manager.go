// Package sheet holds the output sheet managers and the controller that
// drives their collect and generate phases.
package sheet

import (
	"context"
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/calculations"
	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
)

// Manager owns one output sheet. Collect reads the source models into
// manager-local state; Generate turns that state into rows.
type Manager interface {
	Name() string
	Collect(ctx context.Context, c *Controller) error
	Generate(ctx context.Context, wb *output.Workbook) error
}

// Dependent is implemented by managers that must collect after others.
type Dependent interface {
	DependsOn() []string
}

// Sources are the parsed input models of one generation run
type Sources struct {
	Report        *report.Report
	Current       *calculations.Document
	Prior         *calculations.Document
	Practitioners *practitioner.Reference
	Rules         *aig.Table
}

// Validate checks every model is present
func (s Sources) Validate() error {
	switch {
	case s.Report == nil:
		return fmt.Errorf("%w: report", ErrMissingSource)
	case s.Current == nil:
		return fmt.Errorf("%w: current calculations", ErrMissingSource)
	case s.Prior == nil:
		return fmt.Errorf("%w: prior calculations", ErrMissingSource)
	case s.Practitioners == nil:
		return fmt.Errorf("%w: practitioners", ErrMissingSource)
	case s.Rules == nil:
		return fmt.Errorf("%w: rules", ErrMissingSource)
	}
	return nil
}

// RegisterDefaults registers every manager in dependency order: the
// auxiliary sheets, the AIG sheets of the rule table, the trend table,
// then the common sheet.
func RegisterDefaults(c *Controller) error {
	managers := []Manager{
		NewDEAConcernManager(),
		NewCSCashManager(),
		NewArcosManager(),
		NewTop10CSManager(),
		NewTopDrugsManager(),
	}
	var aigNames []string
	for _, rule := range c.Sources().Rules.Sheets() {
		m := NewAIGManager(rule)
		managers = append(managers, m)
		aigNames = append(aigNames, m.Name())
	}
	managers = append(managers, NewAIGTableManager(), NewCommonManager(aigNames))

	for _, m := range managers {
		if err := c.Register(m); err != nil {
			return err
		}
	}
	return nil
}
