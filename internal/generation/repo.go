package generation

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists generation audit records.
type Repository interface {
	// Create stores rec, assigning an ID when rec.ID is zero, and returns the
	// stored record with its creation time.
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
}
