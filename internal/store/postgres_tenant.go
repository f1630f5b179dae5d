package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teresa-solution/tenant-order-service/internal/model"
)

const tenantColumns = `id, name, email, plan, status, settings, created_at, updated_at`

// PostgresTenantRepository handles database operations for tenants
type PostgresTenantRepository struct {
	db      *sql.DB
	table   string
	cursors *CursorCodec
}

// NewPostgresTenantRepository creates a repository over table
func NewPostgresTenantRepository(db *sql.DB, table string, cursors *CursorCodec) *PostgresTenantRepository {
	return &PostgresTenantRepository{db: db, table: quoteTable(table), cursors: cursors}
}

const tenantScope = "tenants"

type tenantPosition struct {
	Scope string `json:"scope"`
	ID    string `json:"id"`
}

// Create inserts the tenant, replacing any row with the same id
func (r *PostgresTenantRepository) Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	return r.put(ctx, tenant)
}

// Update replaces the stored tenant
func (r *PostgresTenantRepository) Update(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	return r.put(ctx, tenant)
}

func (r *PostgresTenantRepository) put(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	var settings []byte
	if tenant.Settings != nil {
		raw, err := json.Marshal(tenant.Settings)
		if err != nil {
			return model.Tenant{}, err
		}
		settings = raw
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			settings = EXCLUDED.settings,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, r.table, tenantColumns)
	_, err := r.db.ExecContext(ctx, query,
		tenant.TenantID, tenant.Name, tenant.Email, string(tenant.Plan), string(tenant.Status),
		nullableJSON(settings), tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("put tenant %s: %w", tenant.TenantID, err)
	}
	return tenant, nil
}

// FindByID retrieves a tenant by ID
func (r *PostgresTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, tenantColumns, r.table)
	return r.queryOne(ctx, query, id)
}

// FindByEmail retrieves the first tenant registered with email
func (r *PostgresTenantRepository) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1 ORDER BY created_at, id LIMIT 1`, tenantColumns, r.table)
	return r.queryOne(ctx, query, email)
}

func (r *PostgresTenantRepository) queryOne(ctx context.Context, query string, arg any) (*model.Tenant, error) {
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete removes a tenant. Orders referencing it are left in place.
func (r *PostgresTenantRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	return nil
}

// List returns tenants ordered by id
func (r *PostgresTenantRepository) List(ctx context.Context, limit int, cursor string) (Page[model.Tenant], error) {
	limit = normalizeLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT $1`, tenantColumns, r.table)
		rows, err = r.db.QueryContext(ctx, query, limit+1)
	} else {
		var pos tenantPosition
		if err := r.cursors.Decode(cursor, &pos); err != nil {
			return Page[model.Tenant]{}, err
		}
		if err := checkScope(pos.Scope, tenantScope); err != nil {
			return Page[model.Tenant]{}, err
		}
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE id > $1 ORDER BY id LIMIT $2`, tenantColumns, r.table)
		rows, err = r.db.QueryContext(ctx, query, pos.ID, limit+1)
	}
	if err != nil {
		return Page[model.Tenant]{}, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]model.Tenant, 0, limit)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return Page[model.Tenant]{}, err
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Tenant]{}, err
	}

	page := Page[model.Tenant]{Items: tenants}
	if len(tenants) > limit {
		page.Items = tenants[:limit]
		page.Cursor, err = r.cursors.Encode(tenantPosition{Scope: tenantScope, ID: page.Items[limit-1].TenantID})
		if err != nil {
			return Page[model.Tenant]{}, err
		}
	}
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*model.Tenant, error) {
	var (
		tenant   model.Tenant
		plan     string
		status   string
		settings []byte
	)
	err := row.Scan(&tenant.TenantID, &tenant.Name, &tenant.Email, &plan, &status,
		&settings, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tenant.Plan = model.TenantPlan(plan)
	tenant.Status = model.TenantStatus(status)
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	tenant.UpdatedAt = tenant.UpdatedAt.UTC()
	if len(settings) > 0 {
		tenant.Settings = &model.TenantSettings{}
		if err := json.Unmarshal(settings, tenant.Settings); err != nil {
			return nil, fmt.Errorf("decode settings of tenant %s: %w", tenant.TenantID, err)
		}
	}
	return &tenant, nil
}
