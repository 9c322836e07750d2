package settings

import "context"

// Repository persists the settings singleton.
type Repository interface {
	// Get returns the settings row, or pgx.ErrNoRows when none exists yet.
	Get(ctx context.Context) (*Settings, error)
	Create(ctx context.Context, s *Settings) error
	Update(ctx context.Context, s *Settings) error
}
