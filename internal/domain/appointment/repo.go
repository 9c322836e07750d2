package appointment

import (
	"context"

	"github.com/dentflow/dentflow/internal/platform/listquery"
)

// Repository is the persistence interface for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Appointment, int, error)
}
