package report

import (
	"github.com/garyjia/pharmacy-audit/internal/source"
	"go.uber.org/zap"
)

// SummaryValues are the summary sheet's headline figures. Percentages are
// fractions.
type SummaryValues struct {
	TotalRx           float64
	ControlledRx      float64
	ControlledPct     float64
	CashPct           float64
	UniquePatients    float64
	UniquePrescribers float64
	OutOfStatePct     float64
}

// Summary reads label/value pairs from the summary sheet
type Summary struct {
	sheet  *source.Sheet
	logger *zap.Logger

	loaded bool
	values SummaryValues
}

// Values returns the summary figures, reading the sheet on first call.
func (s *Summary) Values() SummaryValues {
	if s.loaded {
		return s.values
	}
	s.loaded = true
	s.values = SummaryValues{
		TotalRx:           s.number(LabelTotalRx),
		ControlledRx:      s.number(LabelControlledRx),
		ControlledPct:     s.percent(LabelControlledPct),
		CashPct:           s.percent(LabelCashPct),
		UniquePatients:    s.number(LabelUniquePatients),
		UniquePrescribers: s.number(LabelUniquePrescribers),
		OutOfStatePct:     s.percent(LabelOutOfStatePct),
	}
	return s.values
}

func (s *Summary) number(label string) float64 {
	raw, _ := s.sheet.Lookup(label)
	v, ok := source.ParseNumber(raw)
	if !ok && raw != "" {
		s.logger.Debug("Unparseable summary value", zap.String("label", label), zap.String("value", raw))
	}
	return v
}

func (s *Summary) percent(label string) float64 {
	raw, _ := s.sheet.Lookup(label)
	v, ok := source.ParsePercent(raw)
	if !ok && raw != "" {
		s.logger.Debug("Unparseable summary percentage", zap.String("label", label), zap.String("value", raw))
	}
	return v
}
