package report

import (
	"errors"
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/source"
	"go.uber.org/zap"
)

// BandRange selects distance bands Start..End inclusive (1-based).
type BandRange struct {
	Start int `mapstructure:"start"`
	End   int `mapstructure:"end"`
}

// FullRange covers every band
var FullRange = BandRange{Start: 1, End: Bands}

// Contains reports whether band (1-based) is inside the range
func (r BandRange) Contains(band int) bool {
	return band >= r.Start && band <= r.End
}

// Normalized clamps the range to 1..Bands, falling back to the full range
// when it is empty.
func (r BandRange) Normalized() BandRange {
	if r.Start < 1 {
		r.Start = 1
	}
	if r.End > Bands || r.End == 0 {
		r.End = Bands
	}
	if r.Start > r.End {
		return FullRange
	}
	return r
}

// Config tunes report interpretation
type Config struct {
	Top10              BandRange
	PharmacyPrescriber BandRange
	PharmacyPatient    BandRange
	PrescriberPatient  BandRange
	// StrictSchema fails loading when a present sheet is smaller than its
	// schema; otherwise violations are only logged.
	StrictSchema bool
}

// DefaultConfig uses the full band range everywhere and a strict schema
func DefaultConfig() Config {
	return Config{
		Top10:              FullRange,
		PharmacyPrescriber: FullRange,
		PharmacyPatient:    FullRange,
		PrescriberPatient:  FullRange,
		StrictSchema:       true,
	}
}

// Report is the tabular numeric report. Section handlers are created on
// first use and memoize their derived values.
type Report struct {
	wb     *source.Workbook
	cfg    Config
	logger *zap.Logger

	summary         *Summary
	analysis        *Analysis
	spatial         *Spatial
	trinity         *Trinity
	irMulti         *IRMulti
	multiPrescriber *MultiPrescriber
	med             *MED
	prescriptions   *Prescriptions
}

// Load opens the report workbook and checks it against Schemas.
func Load(f source.File, cfg Config, logger *zap.Logger) (*Report, error) {
	wb, err := source.OpenWorkbook(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	r, err := New(wb, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Report workbook loaded",
		zap.String("file", f.Name),
		zap.Strings("sheets", wb.SheetNames()))
	return r, nil
}

// New wraps an opened workbook.
func New(wb *source.Workbook, cfg Config, logger *zap.Logger) (*Report, error) {
	cfg.Top10 = cfg.Top10.Normalized()
	cfg.PharmacyPrescriber = cfg.PharmacyPrescriber.Normalized()
	cfg.PharmacyPatient = cfg.PharmacyPatient.Normalized()
	cfg.PrescriberPatient = cfg.PrescriberPatient.Normalized()

	r := &Report{wb: wb, cfg: cfg, logger: logger}
	if err := r.Validate(); err != nil {
		if cfg.StrictSchema {
			return nil, err
		}
		logger.Warn("Report schema violations", zap.Error(err))
	}
	for _, s := range Schemas {
		if wb.Sheet(s.Sheet) == nil {
			logger.Warn("Report sheet missing, section will be empty", zap.String("sheet", s.Sheet))
		}
	}
	return r, nil
}

// Validate checks every present sheet covers its schema's maximum cell.
func (r *Report) Validate() error {
	var errs []error
	for _, s := range Schemas {
		if err := r.wb.Sheet(s.Sheet).Conform(s.MaxCell); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the effective configuration
func (r *Report) Config() Config {
	return r.cfg
}

// Summary returns the summary section handler
func (r *Report) Summary() *Summary {
	if r.summary == nil {
		r.summary = &Summary{sheet: r.wb.Sheet(SheetSummary), logger: r.logger}
	}
	return r.summary
}

// Analysis returns the top-10 analysis handler
func (r *Report) Analysis() *Analysis {
	if r.analysis == nil {
		r.analysis = &Analysis{sheet: r.wb.Sheet(SheetAnalysis)}
	}
	return r.analysis
}

// Spatial returns the distance band handler
func (r *Report) Spatial() *Spatial {
	if r.spatial == nil {
		r.spatial = &Spatial{sheet: r.wb.Sheet(SheetSpatial), cfg: r.cfg}
	}
	return r.spatial
}

// Trinity returns the trinity-combination handler
func (r *Report) Trinity() *Trinity {
	if r.trinity == nil {
		r.trinity = &Trinity{sheet: r.wb.Sheet(SheetTrinity)}
	}
	return r.trinity
}

// IRMulti returns the immediate-release multi-drug handler
func (r *Report) IRMulti() *IRMulti {
	if r.irMulti == nil {
		r.irMulti = &IRMulti{sheet: r.wb.Sheet(SheetIRMulti)}
	}
	return r.irMulti
}

// MultiPrescriber returns the multi-prescriber handler
func (r *Report) MultiPrescriber() *MultiPrescriber {
	if r.multiPrescriber == nil {
		r.multiPrescriber = &MultiPrescriber{sheet: r.wb.Sheet(SheetMultiPrescriber)}
	}
	return r.multiPrescriber
}

// MED returns the high-dose handler
func (r *Report) MED() *MED {
	if r.med == nil {
		r.med = &MED{sheet: r.wb.Sheet(SheetMED)}
	}
	return r.med
}

// Prescriptions returns the raw prescription rows handler
func (r *Report) Prescriptions() *Prescriptions {
	if r.prescriptions == nil {
		r.prescriptions = &Prescriptions{
			controlledSheet: r.wb.Sheet(SheetControlled),
			allSheet:        r.wb.Sheet(SheetAll),
		}
	}
	return r.prescriptions
}
