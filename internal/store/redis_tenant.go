package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/teresa-solution/tenant-order-service/internal/model"
)

// RedisTenantRepository stores tenants as JSON documents in Redis
type RedisTenantRepository struct {
	rdb     redis.UniversalClient
	prefix  string
	cursors *CursorCodec
}

// NewRedisTenantRepository creates a repository whose keys start with prefix
func NewRedisTenantRepository(rdb redis.UniversalClient, prefix string, cursors *CursorCodec) *RedisTenantRepository {
	return &RedisTenantRepository{rdb: rdb, prefix: prefix, cursors: cursors}
}

func (r *RedisTenantRepository) recordKey(id string) string {
	return fmt.Sprintf("%stenant:%s", r.prefix, id)
}

func (r *RedisTenantRepository) allKey() string {
	return r.prefix + "tenants:all"
}

func (r *RedisTenantRepository) emailKey(email string) string {
	return fmt.Sprintf("%stenants:email:%s", r.prefix, email)
}

func (r *RedisTenantRepository) Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	return r.put(ctx, tenant)
}

func (r *RedisTenantRepository) Update(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	return r.put(ctx, tenant)
}

func (r *RedisTenantRepository) put(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	data, err := json.Marshal(tenant)
	if err != nil {
		return model.Tenant{}, err
	}
	previous, err := r.FindByID(ctx, tenant.TenantID)
	if err != nil {
		return model.Tenant{}, err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(tenant.TenantID), data, 0)
		pipe.ZAdd(ctx, r.allKey(), zMember(tenant.TenantID))
		if previous != nil {
			pipe.ZRem(ctx, r.emailKey(previous.Email), indexMember(previous.CreatedAt, tenant.TenantID))
		}
		pipe.ZAdd(ctx, r.emailKey(tenant.Email), zMember(indexMember(tenant.CreatedAt, tenant.TenantID)))
		return nil
	})
	if err != nil {
		return model.Tenant{}, fmt.Errorf("put tenant %s: %w", tenant.TenantID, err)
	}
	return tenant, nil
}

func (r *RedisTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	raw, err := getJSON(ctx, r.rdb, r.recordKey(id))
	if err != nil || raw == nil {
		return nil, err
	}
	var tenant model.Tenant
	if err := json.Unmarshal(raw, &tenant); err != nil {
		return nil, fmt.Errorf("decode tenant %s: %w", id, err)
	}
	return &tenant, nil
}

// FindByEmail returns the earliest created tenant registered with email
func (r *RedisTenantRepository) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	members, err := r.rdb.ZRange(ctx, r.emailKey(email), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("lookup email index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, memberID(members[0]))
}

func (r *RedisTenantRepository) Delete(ctx context.Context, id string) error {
	previous, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.recordKey(id))
		pipe.ZRem(ctx, r.allKey(), id)
		if previous != nil {
			pipe.ZRem(ctx, r.emailKey(previous.Email), indexMember(previous.CreatedAt, id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	return nil
}

func (r *RedisTenantRepository) List(ctx context.Context, limit int, cursor string) (Page[model.Tenant], error) {
	ids, next, err := pageMembers(ctx, r.rdb, r.cursors, r.allKey(), limit, cursor)
	if err != nil {
		return Page[model.Tenant]{}, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(id)
	}
	raws, err := mgetJSON(ctx, r.rdb, keys)
	if err != nil {
		return Page[model.Tenant]{}, fmt.Errorf("load tenants: %w", err)
	}

	tenants := make([]model.Tenant, 0, len(raws))
	for _, raw := range raws {
		var tenant model.Tenant
		if err := json.Unmarshal(raw, &tenant); err != nil {
			return Page[model.Tenant]{}, fmt.Errorf("decode tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	return Page[model.Tenant]{Items: tenants, Cursor: next}, nil
}
