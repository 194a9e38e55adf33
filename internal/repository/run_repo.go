package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const runsTable = "generation_runs"

var runColumns = []string{
	"id", "pharmacy", "pharmacy_id", "period", "sheet_count", "missing_dea", "output_path", "created_at",
}

// RunRepository records generated templates
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a run, assigning its ID and timestamp when unset
func (r *RunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert(runsTable).
		Columns(runColumns...).
		Values(run.ID, run.Pharmacy, run.PharmacyID, run.Period, run.SheetCount,
			strings.Join(run.MissingDEA, ","), run.OutputPath, run.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create run", zap.String("id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.GenerationRun, error) {
	query, args, err := sq.Select(runColumns...).From(runsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the newest runs first
func (r *RunRepository) List(ctx context.Context, limit uint64) ([]*models.GenerationRun, error) {
	builder := sq.Select(runColumns...).From(runsTable).OrderBy("created_at DESC", "id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*models.GenerationRun, error) {
	var (
		run     models.GenerationRun
		missing string
	)
	err := s.Scan(&run.ID, &run.Pharmacy, &run.PharmacyID, &run.Period, &run.SheetCount,
		&missing, &run.OutputPath, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if missing != "" {
		run.MissingDEA = strings.Split(missing, ",")
	}
	return &run, nil
}
