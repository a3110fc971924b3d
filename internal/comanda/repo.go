package comanda

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderFilter narrows List results. Zero-value fields are ignored.
type OrderFilter struct {
	Statuses []Status
	TableID  *uuid.UUID
	Takeaway *bool
	From     time.Time
	To       time.Time
}

// StatusStamps carries the timestamps that accompany a status write.
type StatusStamps struct {
	ServedAt *time.Time
	PaidAt   *time.Time
}

// OrderRepo is the persistence seam for orders. Create persists the header
// and all lines atomically; a partially written order must never be visible.
// Failures are non-retryable at this layer.
type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, stamps StatusStamps) error
	Save(ctx context.Context, order *Order) error
	NextNumber(ctx context.Context) (int64, error)
}

type TableRepo interface {
	List(ctx context.Context) ([]*Table, error)
	Create(ctx context.Context, table *Table) error
	Save(ctx context.Context, table *Table) error
	UpsertPosition(ctx context.Context, id uuid.UUID, x, y float64) error
}

// MenuRepo is the read-only catalog collaborator.
type MenuRepo interface {
	ListItems(ctx context.Context) ([]*MenuItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	ListCategories(ctx context.Context) ([]*ProductCategory, error)
}
