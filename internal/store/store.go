package store

import (
	"context"
	"errors"

	"github.com/teresa-solution/tenant-order-service/internal/model"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be opened
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Page is one page of a listing. Cursor is empty when no more results exist.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// TenantRepository persists tenants. Lookups return (nil, nil) when nothing
// matches. Create and Update are unconditional upserts.
type TenantRepository interface {
	Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error)
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*model.Tenant, error)
	Update(ctx context.Context, tenant model.Tenant) (model.Tenant, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int, cursor string) (Page[model.Tenant], error)
}

// OrderRepository persists orders. Lookups return (nil, nil) when nothing
// matches. Create and Update are unconditional upserts.
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByTenant(ctx context.Context, tenantID string, limit int, cursor string) (Page[model.Order], error)
	FindByStatus(ctx context.Context, status model.OrderStatus, limit int, cursor string) (Page[model.Order], error)
	Update(ctx context.Context, order model.Order) (model.Order, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int, cursor string) (Page[model.Order], error)
}

// Store bundles the repositories of one backend
type Store struct {
	Tenants TenantRepository
	Orders  OrderRepository
	close   func() error
}

// Close releases the backend connection
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

const defaultLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
