package puzzle

import "context"

// Repository is the persistence port for records. Implementations return
// ErrNotFound (possibly wrapped) for unknown IDs. Create assigns an ID when
// the record has none and returns the stored record.
type Repository interface {
	Create(ctx context.Context, r *Record) (*Record, error)
	Update(ctx context.Context, r *Record) (*Record, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
}
