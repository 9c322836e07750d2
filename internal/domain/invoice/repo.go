package invoice

import (
	"context"

	"github.com/dentflow/dentflow/internal/platform/listquery"
)

// Repository is the persistence interface for invoices.
type Repository interface {
	Create(ctx context.Context, i *Invoice) error
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	Update(ctx context.Context, i *Invoice) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Invoice, int, error)
}
