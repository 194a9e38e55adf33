// Package generator turns the four input documents into the audit template
// workbook.
package generator

import (
	"context"
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/calculations"
	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/sheet"
	"github.com/garyjia/pharmacy-audit/internal/source"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Input holds the raw documents of one run. A nil Rules uses the built-in
// table.
type Input struct {
	Report        source.File
	Current       source.File
	Prior         source.File
	Practitioners source.File
	Rules         *aig.Table
}

// Result is a generated template
type Result struct {
	Workbook   *output.Workbook
	MissingDEA []string

	// Identity of the current calculations document
	Pharmacy   string
	PharmacyID string
	Period     string
}

// Render builds the xlsx file. The caller closes it.
func (r *Result) Render() (*excelize.File, error) {
	return r.Workbook.Render()
}

// Bytes renders the workbook to xlsx bytes
func (r *Result) Bytes() ([]byte, error) {
	return r.Workbook.Bytes()
}

// CanonicalOrder lists output sheet names in workbook order
func CanonicalOrder() []string {
	order := []string{
		sheet.SheetCommon,
		sheet.SheetDEAConcern,
		sheet.SheetCSCash,
		sheet.SheetArcos,
		sheet.SheetTop10CS,
		sheet.SheetTopDr,
	}
	for i := 1; i <= aig.SheetCount; i++ {
		order = append(order, sheet.AIGSheetName(i))
	}
	return append(order, sheet.SheetAIGTable)
}

// Option configures a Generator
type Option func(*Generator)

// WithProgress reports every controller step
func WithProgress(fn func(sheet.Progress)) Option {
	return func(g *Generator) {
		g.progress = fn
	}
}

// WithPractitioners merges verified records over the loaded reference
func WithPractitioners(records ...practitioner.Practitioner) Option {
	return func(g *Generator) {
		g.additions = append(g.additions, records...)
	}
}

// Generator runs one template generation
type Generator struct {
	input     Input
	cfg       report.Config
	logger    *zap.Logger
	progress  func(sheet.Progress)
	additions []practitioner.Practitioner
}

// New creates a generator over one run's input
func New(in Input, cfg report.Config, logger *zap.Logger, opts ...Option) *Generator {
	if in.Rules == nil {
		in.Rules = aig.DefaultTable()
	}
	g := &Generator{
		input:  in,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate parses the inputs, runs every sheet manager and returns the
// workbook in canonical sheet order. Any failure aborts the run.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	src, err := g.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	c := sheet.NewController(src, g.logger)
	if err := sheet.RegisterDefaults(c); err != nil {
		return nil, fmt.Errorf("%w: failed to register sheets: %w", ErrGeneration, err)
	}
	if g.progress != nil {
		c.OnProgress(g.progress)
	}

	if err := c.CollectAll(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	wb := output.NewWorkbook()
	if err := c.GenerateAll(ctx, wb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	wb.Reorder(CanonicalOrder())

	missing := c.MissingDEA()
	g.logger.Info("Template generated",
		zap.String("pharmacy", src.Current.PharmacyName),
		zap.Int("sheets", len(wb.Names())),
		zap.Strings("missing_dea", missing))

	return &Result{
		Workbook:   wb,
		MissingDEA: missing,
		Pharmacy:   src.Current.PharmacyName,
		PharmacyID: src.Current.PharmacyID,
		Period:     src.Current.Period,
	}, nil
}

func (g *Generator) load() (sheet.Sources, error) {
	in := g.input
	for _, f := range []source.File{in.Report, in.Current, in.Prior, in.Practitioners} {
		if len(f.Data) == 0 {
			return sheet.Sources{}, fmt.Errorf("%w: %q", ErrNoInput, f.Name)
		}
	}

	rep, err := report.Load(in.Report, g.cfg, g.logger)
	if err != nil {
		return sheet.Sources{}, err
	}
	drugs := in.Rules.Lookups()
	current, err := calculations.Load(in.Current, drugs, g.logger)
	if err != nil {
		return sheet.Sources{}, err
	}
	prior, err := calculations.Load(in.Prior, drugs, g.logger)
	if err != nil {
		return sheet.Sources{}, err
	}
	ref, err := practitioner.Load(in.Practitioners, g.logger)
	if err != nil {
		return sheet.Sources{}, err
	}
	for _, p := range g.additions {
		ref.Add(p)
	}

	src := sheet.Sources{
		Report:        rep,
		Current:       current,
		Prior:         prior,
		Practitioners: ref,
		Rules:         in.Rules,
	}
	return src, src.Validate()
}
