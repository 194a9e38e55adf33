package sheet

import (
	"context"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/calculations"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/source"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixtureSources(t *testing.T, reportSheets ...testutil.SheetData) Sources {
	t.Helper()
	logger := zap.NewNop()
	if len(reportSheets) == 0 {
		reportSheets = testutil.ReportSheets()
	}

	data, err := testutil.BuildXLSX(reportSheets...)
	require.NoError(t, err)
	rep, err := report.Load(source.File{Name: "report.xlsx", Data: data}, report.DefaultConfig(), logger)
	require.NoError(t, err)

	data, err = testutil.BuildXLSX(testutil.PractitionerSheets()...)
	require.NoError(t, err)
	ref, err := practitioner.Load(source.File{Name: "practitioners.xlsx", Data: data}, logger)
	require.NoError(t, err)

	rules := aig.DefaultTable()
	parser := calculations.NewParser(rules.Lookups(), logger)
	return Sources{
		Report:        rep,
		Current:       parser.Parse(testutil.CalculationsRows("2024-01 to 2024-06", testutil.CurrentBlocks()...)),
		Prior:         parser.Parse(testutil.CalculationsRows("2023-07 to 2023-12", testutil.PriorBlocks()...)),
		Practitioners: ref,
		Rules:         rules,
	}
}

// collected registers the default managers and runs the collect phase.
func collected(t *testing.T, src Sources) *Controller {
	t.Helper()
	c := NewController(src, zap.NewNop())
	require.NoError(t, RegisterDefaults(c))
	require.NoError(t, c.CollectAll(context.Background()))
	return c
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func mustRule(t *testing.T, src Sources, sheet int) aig.Rule {
	t.Helper()
	r, ok := src.Rules.ForSheet(sheet)
	require.True(t, ok)
	return r
}
