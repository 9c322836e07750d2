package prescription

import (
	"context"

	"github.com/dentflow/dentflow/internal/platform/listquery"
)

// Repository is the persistence interface for prescriptions and their
// medications. Multi-row operations are composed into transactions by the
// service.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Prescription, int, error)

	InsertMedications(ctx context.Context, prescriptionID int64, meds []*Medication) error
	DeleteMedications(ctx context.Context, prescriptionID int64) error
	MedicationsFor(ctx context.Context, prescriptionIDs []int64) (map[int64][]*Medication, error)
}
