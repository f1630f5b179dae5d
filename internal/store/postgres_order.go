package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teresa-solution/tenant-order-service/internal/model"
)

const orderColumns = `id, tenant_id, customer_id, items, total_amount, currency, status, payment_status,
	shipping_address, billing_address, notes, created_at, updated_at`

// PostgresOrderRepository handles database operations for orders. Rows are
// keyed by (id, tenant_id).
type PostgresOrderRepository struct {
	db      *sql.DB
	table   string
	cursors *CursorCodec
}

// NewPostgresOrderRepository creates a repository over table
func NewPostgresOrderRepository(db *sql.DB, table string, cursors *CursorCodec) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, table: quoteTable(table), cursors: cursors}
}

const orderScope = "orders"

type orderPosition struct {
	Scope     string    `json:"scope"`
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Create inserts the order, replacing any row with the same key
func (r *PostgresOrderRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	return r.put(ctx, order)
}

// Update replaces the stored order
func (r *PostgresOrderRepository) Update(ctx context.Context, order model.Order) (model.Order, error) {
	return r.put(ctx, order)
}

func (r *PostgresOrderRepository) put(ctx context.Context, order model.Order) (model.Order, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return model.Order{}, err
	}
	shipping, err := marshalAddress(order.ShippingAddress)
	if err != nil {
		return model.Order{}, err
	}
	billing, err := marshalAddress(order.BillingAddress)
	if err != nil {
		return model.Order{}, err
	}
	var notes sql.NullString
	if order.Notes != "" {
		notes = sql.NullString{String: order.Notes, Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id, tenant_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			items = EXCLUDED.items,
			total_amount = EXCLUDED.total_amount,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			payment_status = EXCLUDED.payment_status,
			shipping_address = EXCLUDED.shipping_address,
			billing_address = EXCLUDED.billing_address,
			notes = EXCLUDED.notes,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, r.table, orderColumns)
	_, err = r.db.ExecContext(ctx, query,
		order.OrderID, order.TenantID, order.CustomerID, items, order.TotalAmount, order.Currency,
		string(order.Status), string(order.PaymentStatus), nullableJSON(shipping), nullableJSON(billing),
		notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, fmt.Errorf("put order %s: %w", order.OrderID, err)
	}
	return order, nil
}

// FindByID looks an order up by id alone
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, orderColumns, r.table)
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Delete resolves the tenant half of the key from the id, then removes the row
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) error {
	order, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND tenant_id = $2`, r.table)
	if _, err := r.db.ExecContext(ctx, query, order.OrderID, order.TenantID); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// FindByTenant returns the tenant's orders oldest first
func (r *PostgresOrderRepository) FindByTenant(ctx context.Context, tenantID string, limit int, cursor string) (Page[model.Order], error) {
	return r.queryByCreated(ctx, "tenant_id", tenantID, limit, cursor)
}

// FindByStatus returns orders in status oldest first
func (r *PostgresOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus, limit int, cursor string) (Page[model.Order], error) {
	return r.queryByCreated(ctx, "status", string(status), limit, cursor)
}

func (r *PostgresOrderRepository) queryByCreated(ctx context.Context, column, value string, limit int, cursor string) (Page[model.Order], error) {
	limit = normalizeLimit(limit)
	scope := orderScope + "/" + column + "=" + value

	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at, id LIMIT $2`,
			orderColumns, r.table, column)
		rows, err = r.db.QueryContext(ctx, query, value, limit+1)
	} else {
		var pos orderPosition
		if err := r.cursors.Decode(cursor, &pos); err != nil {
			return Page[model.Order]{}, err
		}
		if err := checkScope(pos.Scope, scope); err != nil {
			return Page[model.Order]{}, err
		}
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND (created_at, id) > ($2, $3) ORDER BY created_at, id LIMIT $4`,
			orderColumns, r.table, column)
		rows, err = r.db.QueryContext(ctx, query, value, pos.CreatedAt, pos.ID, limit+1)
	}
	if err != nil {
		return Page[model.Order]{}, fmt.Errorf("query orders by %s: %w", column, err)
	}
	return r.collect(rows, limit, func(last model.Order) orderPosition {
		return orderPosition{Scope: scope, ID: last.OrderID, CreatedAt: last.CreatedAt}
	})
}

// List returns every order ordered by key
func (r *PostgresOrderRepository) List(ctx context.Context, limit int, cursor string) (Page[model.Order], error) {
	limit = normalizeLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id, tenant_id LIMIT $1`, orderColumns, r.table)
		rows, err = r.db.QueryContext(ctx, query, limit+1)
	} else {
		var pos orderPosition
		if err := r.cursors.Decode(cursor, &pos); err != nil {
			return Page[model.Order]{}, err
		}
		if err := checkScope(pos.Scope, orderScope); err != nil {
			return Page[model.Order]{}, err
		}
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE (id, tenant_id) > ($1, $2) ORDER BY id, tenant_id LIMIT $3`,
			orderColumns, r.table)
		rows, err = r.db.QueryContext(ctx, query, pos.ID, pos.TenantID, limit+1)
	}
	if err != nil {
		return Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return r.collect(rows, limit, func(last model.Order) orderPosition {
		return orderPosition{Scope: orderScope, ID: last.OrderID, TenantID: last.TenantID}
	})
}

func (r *PostgresOrderRepository) collect(rows *sql.Rows, limit int, position func(model.Order) orderPosition) (Page[model.Order], error) {
	defer rows.Close()

	orders := make([]model.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return Page[model.Order]{}, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return Page[model.Order]{}, err
	}

	page := Page[model.Order]{Items: orders}
	if len(orders) > limit {
		page.Items = orders[:limit]
		cursor, err := r.cursors.Encode(position(page.Items[limit-1]))
		if err != nil {
			return Page[model.Order]{}, err
		}
		page.Cursor = cursor
	}
	return page, nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		order         model.Order
		items         []byte
		status        string
		paymentStatus string
		shipping      []byte
		billing       []byte
		notes         sql.NullString
	)
	err := row.Scan(&order.OrderID, &order.TenantID, &order.CustomerID, &items, &order.TotalAmount,
		&order.Currency, &status, &paymentStatus, &shipping, &billing, &notes,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.Status = model.OrderStatus(status)
	order.PaymentStatus = model.PaymentStatus(paymentStatus)
	order.Notes = notes.String
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", order.OrderID, err)
	}
	if order.ShippingAddress, err = unmarshalAddress(shipping); err != nil {
		return nil, fmt.Errorf("decode shipping address of order %s: %w", order.OrderID, err)
	}
	if order.BillingAddress, err = unmarshalAddress(billing); err != nil {
		return nil, fmt.Errorf("decode billing address of order %s: %w", order.OrderID, err)
	}
	return &order, nil
}

func marshalAddress(a *model.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func unmarshalAddress(raw []byte) (*model.Address, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a model.Address
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
