package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/generator"
	"github.com/garyjia/pharmacy-audit/internal/sheet"
	"github.com/garyjia/pharmacy-audit/internal/source"
	"github.com/garyjia/pharmacy-audit/internal/storage"
)

// errAborted is returned when the user declines to save a template with
// unresolved prescribers.
var errAborted = errors.New("generation aborted")

type generateOptions struct {
	report        string
	current       string
	prior         string
	practitioners string
	rules         string
	outDir        string
	yes           bool
	quiet         bool
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build an audit template workbook",
		Long: `Generate reads the pharmacy analysis report, the current and prior
calculations documents and the practitioner reference, and writes the
audit template workbook to the output directory.

Prescribers missing from the practitioner reference are listed before the
workbook is saved; pass --yes to save without asking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.report, "report", "", "pharmacy analysis report (.xlsx)")
	f.StringVar(&opts.current, "current", "", "current period calculations (.docx or .html)")
	f.StringVar(&opts.prior, "prior", "", "prior period calculations (.docx or .html)")
	f.StringVar(&opts.practitioners, "practitioners", "", "practitioner reference (.xlsx)")
	f.StringVar(&opts.rules, "rules", "", "AIG rule table (.yaml); defaults to the configured file, then the built-in table")
	f.StringVarP(&opts.outDir, "out-dir", "o", ".", "directory the template is written to")
	f.BoolVarP(&opts.yes, "yes", "y", false, "save even when prescribers are missing")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	for _, name := range []string{"report", "current", "prior", "practitioners"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, opts *generateOptions) error {
	in, err := opts.input()
	if err != nil {
		return err
	}
	if in.Rules, err = a.rules(opts.rules); err != nil {
		return err
	}

	var genOpts []generator.Option
	if !opts.quiet {
		bar := newSheetProgress(cmd.ErrOrStderr())
		genOpts = append(genOpts, generator.WithProgress(bar.update))
	}

	res, err := generator.New(in, a.cfg.ReportConfig(), a.logger, genOpts...).Generate(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.MissingDEA) > 0 {
		fmt.Fprintf(out, "%d prescribers are missing from the practitioner reference:\n", len(res.MissingDEA))
		for _, dea := range res.MissingDEA {
			fmt.Fprintf(out, "  %s\n", dea)
		}
		if !opts.yes {
			ok, err := confirm(cmd.InOrStdin(), out, "Save the template anyway? [y/N]: ")
			if err != nil {
				return err
			}
			if !ok {
				return errAborted
			}
		}
	}

	content, err := res.Bytes()
	if err != nil {
		return err
	}
	store := storage.NewTemplateStore(opts.outDir, a.logger)
	path, err := store.Save(store.FileName(res.PharmacyID, res.Period), content)
	if err != nil {
		return err
	}

	a.logger.Info("Template written", zap.String("path", path), zap.Int("sheets", len(res.Workbook.Names())))
	fmt.Fprintf(out, "Wrote %s (%d sheets)\n", path, len(res.Workbook.Names()))
	return nil
}

func (o *generateOptions) input() (generator.Input, error) {
	var in generator.Input
	files := []struct {
		path string
		dst  *source.File
	}{
		{o.report, &in.Report},
		{o.current, &in.Current},
		{o.prior, &in.Prior},
		{o.practitioners, &in.Practitioners},
	}
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return in, fmt.Errorf("failed to read input: %w", err)
		}
		*f.dst = source.File{Name: filepath.Base(f.path), Data: data}
	}
	return in, nil
}

// rules picks the --rules file, then the configured rules file, then the
// built-in table.
func (a *app) rules(path string) (*aig.Table, error) {
	if path == "" {
		path = a.cfg.Generator.RulesFile
	}
	if path == "" {
		return aig.DefaultTable(), nil
	}
	return aig.LoadFile(path)
}

func confirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// sheetProgress draws one bar step per manager phase
type sheetProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newSheetProgress(w io.Writer) *sheetProgress {
	return &sheetProgress{w: w}
}

func (p *sheetProgress) update(ev sheet.Progress) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Describe(fmt.Sprintf("%-8s %-10s", ev.Phase, ev.Manager))
	_ = p.bar.Set(ev.Done)
}
