package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/teresa-solution/tenant-order-service/internal/model"
)

// RedisOrderRepository stores orders as JSON documents in Redis, with
// time-ordered indexes per tenant and per status.
type RedisOrderRepository struct {
	rdb     redis.UniversalClient
	prefix  string
	cursors *CursorCodec
}

// NewRedisOrderRepository creates a repository whose keys start with prefix
func NewRedisOrderRepository(rdb redis.UniversalClient, prefix string, cursors *CursorCodec) *RedisOrderRepository {
	return &RedisOrderRepository{rdb: rdb, prefix: prefix, cursors: cursors}
}

func (r *RedisOrderRepository) recordKey(id string) string {
	return fmt.Sprintf("%sorder:%s", r.prefix, id)
}

func (r *RedisOrderRepository) allKey() string {
	return r.prefix + "orders:all"
}

func (r *RedisOrderRepository) tenantKey(tenantID string) string {
	return fmt.Sprintf("%sorders:tenant:%s", r.prefix, tenantID)
}

func (r *RedisOrderRepository) statusKey(status model.OrderStatus) string {
	return fmt.Sprintf("%sorders:status:%s", r.prefix, status)
}

func (r *RedisOrderRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	return r.put(ctx, order)
}

func (r *RedisOrderRepository) Update(ctx context.Context, order model.Order) (model.Order, error) {
	return r.put(ctx, order)
}

func (r *RedisOrderRepository) put(ctx context.Context, order model.Order) (model.Order, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return model.Order{}, err
	}
	previous, err := r.FindByID(ctx, order.OrderID)
	if err != nil {
		return model.Order{}, err
	}

	member := indexMember(order.CreatedAt, order.OrderID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil {
			old := indexMember(previous.CreatedAt, previous.OrderID)
			pipe.ZRem(ctx, r.tenantKey(previous.TenantID), old)
			pipe.ZRem(ctx, r.statusKey(previous.Status), old)
		}
		pipe.Set(ctx, r.recordKey(order.OrderID), data, 0)
		pipe.ZAdd(ctx, r.allKey(), zMember(order.OrderID))
		pipe.ZAdd(ctx, r.tenantKey(order.TenantID), zMember(member))
		pipe.ZAdd(ctx, r.statusKey(order.Status), zMember(member))
		return nil
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("put order %s: %w", order.OrderID, err)
	}
	return order, nil
}

func (r *RedisOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	raw, err := getJSON(ctx, r.rdb, r.recordKey(id))
	if err != nil || raw == nil {
		return nil, err
	}
	var order model.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	return &order, nil
}

func (r *RedisOrderRepository) Delete(ctx context.Context, id string) error {
	previous, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if previous == nil {
		return nil
	}

	member := indexMember(previous.CreatedAt, id)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.recordKey(id))
		pipe.ZRem(ctx, r.allKey(), id)
		pipe.ZRem(ctx, r.tenantKey(previous.TenantID), member)
		pipe.ZRem(ctx, r.statusKey(previous.Status), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

func (r *RedisOrderRepository) FindByTenant(ctx context.Context, tenantID string, limit int, cursor string) (Page[model.Order], error) {
	return r.page(ctx, r.tenantKey(tenantID), limit, cursor)
}

func (r *RedisOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus, limit int, cursor string) (Page[model.Order], error) {
	return r.page(ctx, r.statusKey(status), limit, cursor)
}

func (r *RedisOrderRepository) List(ctx context.Context, limit int, cursor string) (Page[model.Order], error) {
	return r.page(ctx, r.allKey(), limit, cursor)
}

func (r *RedisOrderRepository) page(ctx context.Context, index string, limit int, cursor string) (Page[model.Order], error) {
	members, next, err := pageMembers(ctx, r.rdb, r.cursors, index, limit, cursor)
	if err != nil {
		return Page[model.Order]{}, err
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = r.recordKey(memberID(m))
	}
	raws, err := mgetJSON(ctx, r.rdb, keys)
	if err != nil {
		return Page[model.Order]{}, fmt.Errorf("load orders: %w", err)
	}

	orders := make([]model.Order, 0, len(raws))
	for _, raw := range raws {
		var order model.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return Page[model.Order]{}, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, order)
	}
	return Page[model.Order]{Items: orders, Cursor: next}, nil
}
