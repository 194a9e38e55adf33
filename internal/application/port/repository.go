package port

import (
	"context"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
)

// RunRepository defines persistence operations for generation runs
type RunRepository interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	Get(ctx context.Context, id string) (*models.GenerationRun, error)
	List(ctx context.Context, limit uint64) ([]*models.GenerationRun, error)
}

// RuleRepository defines persistence operations for AIG rule overrides
type RuleRepository interface {
	Save(ctx context.Context, table *aig.Table) (*models.RuleOverride, error)
	Latest(ctx context.Context) (*aig.Table, *models.RuleOverride, error)
	Clear(ctx context.Context) (int64, error)
}

// PractitionerRepository defines persistence operations for practitioners
// verified between runs
type PractitionerRepository interface {
	Upsert(ctx context.Context, p practitioner.Practitioner) error
	List(ctx context.Context) ([]practitioner.Practitioner, error)
}
