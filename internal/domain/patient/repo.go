package patient

import (
	"context"

	"github.com/dentflow/dentflow/internal/platform/listquery"
)

// Repository is the persistence interface for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Patient, int, error)
	// HasDependents reports whether any appointment, prescription, or
	// invoice still references the patient.
	HasDependents(ctx context.Context, id int64) (bool, error)
}
