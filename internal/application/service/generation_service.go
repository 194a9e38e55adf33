package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/application/port"
	"github.com/garyjia/pharmacy-audit/internal/generator"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/repository"
	"github.com/garyjia/pharmacy-audit/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger is the key/value logging the service needs
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Rule table sources, in precedence order
const (
	RuleSourceStored  = "stored"
	RuleSourceFile    = "file"
	RuleSourceDefault = "default"
)

// GenerateOutcome is the result of a generate request. Run is nil when the
// template was not saved.
type GenerateOutcome struct {
	Run        *models.GenerationRun
	MissingDEA []string
}

// GenerationService generates, stores and lists audit templates
type GenerationService interface {
	Generate(ctx context.Context, in generator.Input, confirm bool) (*GenerateOutcome, error)
	ListRuns(ctx context.Context, limit uint64) ([]*models.GenerationRun, error)
	OpenRun(ctx context.Context, id string) (*models.GenerationRun, *os.File, error)
	Rules(ctx context.Context) (*aig.Table, string, error)
	SaveRules(ctx context.Context, table *aig.Table) (*models.RuleOverride, error)
	ResetRules(ctx context.Context) error
	AddPractitioner(ctx context.Context, p practitioner.Practitioner) error
}

type generationServiceImpl struct {
	runRepo          port.RunRepository
	ruleRepo         port.RuleRepository
	practitionerRepo port.PractitionerRepository
	storage          port.TemplateStorage
	reportCfg        report.Config
	fileRules        *aig.Table
	zl               *zap.Logger
	logger           Logger
}

// NewGenerationService creates a new GenerationService. fileRules is the
// configured rule file's table, or nil.
func NewGenerationService(
	runRepo port.RunRepository,
	ruleRepo port.RuleRepository,
	practitionerRepo port.PractitionerRepository,
	storage port.TemplateStorage,
	reportCfg report.Config,
	fileRules *aig.Table,
	logger *zap.Logger,
) GenerationService {
	return &generationServiceImpl{
		runRepo:          runRepo,
		ruleRepo:         ruleRepo,
		practitionerRepo: practitionerRepo,
		storage:          storage,
		reportCfg:        reportCfg,
		fileRules:        fileRules,
		zl:               logger,
		logger:           utils.NewKVLogger(logger),
	}
}

// Generate runs the generator with the active rules and stored practitioner
// additions. Missing practitioners stop the save unless confirm is set.
func (s *generationServiceImpl) Generate(ctx context.Context, in generator.Input, confirm bool) (*GenerateOutcome, error) {
	rules, source, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}
	in.Rules = rules

	additions, err := s.practitionerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load practitioner additions: %w", err)
	}

	s.logger.Info("Generating template",
		"report", in.Report.Name,
		"rules", source,
		"practitioner_additions", len(additions))

	res, err := generator.New(in, s.reportCfg, s.zl, generator.WithPractitioners(additions...)).Generate(ctx)
	if err != nil {
		s.logger.Error("Template generation failed", "error", err)
		return nil, err
	}

	outcome := &GenerateOutcome{MissingDEA: res.MissingDEA}
	if len(res.MissingDEA) > 0 && !confirm {
		return outcome, fmt.Errorf("%w: %d prescribers", ErrConfirmationRequired, len(res.MissingDEA))
	}

	content, err := res.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	run := &models.GenerationRun{
		ID:         uuid.NewString(),
		Pharmacy:   res.Pharmacy,
		PharmacyID: res.PharmacyID,
		Period:     res.Period,
		SheetCount: len(res.Workbook.Names()),
		MissingDEA: res.MissingDEA,
	}
	name := s.storage.FileName(res.PharmacyID, res.Period, run.ID[:8])
	run.OutputPath, err = s.storage.Save(name, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	s.logger.Info("Template saved", "run_id", run.ID, "path", run.OutputPath, "sheets", run.SheetCount)
	outcome.Run = run
	return outcome, nil
}

// ListRuns returns the newest runs first
func (s *generationServiceImpl) ListRuns(ctx context.Context, limit uint64) ([]*models.GenerationRun, error) {
	return s.runRepo.List(ctx, limit)
}

// OpenRun returns a run and its saved workbook. The caller closes the file.
func (s *generationServiceImpl) OpenRun(ctx context.Context, id string) (*models.GenerationRun, *os.File, error) {
	run, err := s.runRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.storage.Open(run.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	return run, f, nil
}

// Rules returns the active rule table and where it came from: the newest
// stored override, else the configured file, else the built-in table.
func (s *generationServiceImpl) Rules(ctx context.Context) (*aig.Table, string, error) {
	table, _, err := s.ruleRepo.Latest(ctx)
	switch {
	case err == nil:
		return table, RuleSourceStored, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("failed to load rule override: %w", err)
	case s.fileRules != nil:
		return s.fileRules, RuleSourceFile, nil
	default:
		return aig.DefaultTable(), RuleSourceDefault, nil
	}
}

// SaveRules stores a new override
func (s *generationServiceImpl) SaveRules(ctx context.Context, table *aig.Table) (*models.RuleOverride, error) {
	return s.ruleRepo.Save(ctx, table)
}

// ResetRules drops every stored override
func (s *generationServiceImpl) ResetRules(ctx context.Context) error {
	n, err := s.ruleRepo.Clear(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Rule overrides cleared", "count", n)
	return nil
}

// AddPractitioner stores a verified practitioner for later runs
func (s *generationServiceImpl) AddPractitioner(ctx context.Context, p practitioner.Practitioner) error {
	if err := utils.ValidateDEA(p.DEA); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPractitioner, err)
	}
	p.Name = utils.SanitizeString(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPractitioner)
	}
	return s.practitionerRepo.Upsert(ctx, p)
}
