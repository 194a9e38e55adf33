package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const rulesTable = "rule_overrides"

// RuleRepository stores AIG rule table overrides as YAML documents
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a validated table as the newest override
func (r *RuleRepository) Save(ctx context.Context, table *aig.Table) (*models.RuleOverride, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	doc, err := aig.Marshal(table)
	if err != nil {
		return nil, err
	}

	override := &models.RuleOverride{
		ID:        uuid.NewString(),
		Document:  doc,
		RuleCount: len(table.Rules()),
		CreatedAt: time.Now().UTC(),
	}
	query, args, err := sq.Insert(rulesTable).
		Columns("id", "document", "rule_count", "created_at").
		Values(override.ID, string(doc), override.RuleCount, override.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rule insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to save rule override", zap.Error(err))
		return nil, fmt.Errorf("failed to save rule override: %w", err)
	}
	r.logger.Info("Rule override saved",
		zap.String("id", override.ID),
		zap.Int("rules", override.RuleCount))
	return override, nil
}

// Latest returns the newest override, or ErrNotFound when none is stored.
func (r *RuleRepository) Latest(ctx context.Context) (*aig.Table, *models.RuleOverride, error) {
	query, args, err := sq.Select("id", "document", "rule_count", "created_at").
		From(rulesTable).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build rule query: %w", err)
	}

	var (
		override models.RuleOverride
		doc      string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&override.ID, &doc, &override.RuleCount, &override.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rule override: %w", err)
	}
	override.Document = []byte(doc)

	table, err := aig.Parse(override.Document)
	if err != nil {
		return nil, nil, fmt.Errorf("stored rule override %s: %w", override.ID, err)
	}
	return table, &override, nil
}

// Clear deletes every override, restoring the default table
func (r *RuleRepository) Clear(ctx context.Context) (int64, error) {
	query, args, err := sq.Delete(rulesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build rule delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear rule overrides: %w", err)
	}
	return res.RowsAffected()
}
