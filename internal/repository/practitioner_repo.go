package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"go.uber.org/zap"
)

const practitionersTable = "practitioner_additions"

// PractitionerRepository stores practitioners verified between runs
type PractitionerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPractitionerRepository creates a new practitioner repository
func NewPractitionerRepository(db *sql.DB, logger *zap.Logger) *PractitionerRepository {
	return &PractitionerRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces a practitioner keyed by DEA
func (r *PractitionerRepository) Upsert(ctx context.Context, p practitioner.Practitioner) error {
	now := time.Now().UTC()
	query, args, err := sq.Insert(practitionersTable).
		Columns("dea", "name", "specialty", "location", "state", "disciplinary",
			"note", "note_date", "created_at", "updated_at").
		Values(practitioner.Key(p.DEA), p.Name, p.Specialty, p.Location, p.State,
			p.Disciplinary, p.Note, p.NoteDate, now, now).
		Suffix(`ON CONFLICT(dea) DO UPDATE SET
			name = excluded.name,
			specialty = excluded.specialty,
			location = excluded.location,
			state = excluded.state,
			disciplinary = excluded.disciplinary,
			note = excluded.note,
			note_date = excluded.note_date,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build practitioner upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to save practitioner", zap.String("dea", p.DEA), zap.Error(err))
		return fmt.Errorf("failed to save practitioner: %w", err)
	}
	return nil
}

// List returns every stored practitioner ordered by DEA
func (r *PractitionerRepository) List(ctx context.Context) ([]practitioner.Practitioner, error) {
	query, args, err := sq.Select("dea", "name", "specialty", "location", "state",
		"disciplinary", "note", "note_date").
		From(practitionersTable).
		OrderBy("dea").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build practitioner query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	defer rows.Close()

	var out []practitioner.Practitioner
	for rows.Next() {
		var p practitioner.Practitioner
		if err := rows.Scan(&p.DEA, &p.Name, &p.Specialty, &p.Location, &p.State,
			&p.Disciplinary, &p.Note, &p.NoteDate); err != nil {
			return nil, fmt.Errorf("failed to scan practitioner: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
