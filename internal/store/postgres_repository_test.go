package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/tenant-order-service/internal/model"
)

var (
	tenantRowColumns = []string{"id", "name", "email", "plan", "status", "settings", "created_at", "updated_at"}
	orderRowColumns  = []string{"id", "tenant_id", "customer_id", "items", "total_amount", "currency", "status",
		"payment_status", "shipping_address", "billing_address", "notes", "created_at", "updated_at"}
)

func setupPostgres(t *testing.T) (*PostgresTenantRepository, *PostgresOrderRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cursors, err := NewCursorCodec(nil)
	require.NoError(t, err)

	return NewPostgresTenantRepository(db, "tenants", cursors), NewPostgresOrderRepository(db, "orders", cursors), mock
}

func TestPostgresTenantRepository_Create(t *testing.T) {
	tenants, _, mock := setupPostgres(t)
	tenant := newTestTenant("Acme", "ops@acme.io")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).
		WithArgs(tenant.TenantID, "Acme", "ops@acme.io", "FREE", "PENDING", nil, tenant.CreatedAt, tenant.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := tenants.Create(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, tenant, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_FindByID(t *testing.T) {
	tenants, _, mock := setupPostgres(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(tenantRowColumns).
		AddRow("tenant_1", "Acme", "ops@acme.io", "BASIC", "ACTIVE", []byte(`{"maxUsers":5,"features":["sso"]}`), created, created)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tenants" WHERE id = $1`)).
		WithArgs("tenant_1").
		WillReturnRows(rows)

	tenant, err := tenants.FindByID(context.Background(), "tenant_1")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, model.PlanBasic, tenant.Plan)
	assert.Equal(t, model.TenantActive, tenant.Status)
	require.NotNil(t, tenant.Settings)
	require.NotNil(t, tenant.Settings.MaxUsers)
	assert.Equal(t, 5, *tenant.Settings.MaxUsers)
	assert.Equal(t, []string{"sso"}, tenant.Settings.Features)
	assert.Equal(t, created, tenant.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_FindByIDMissing(t *testing.T) {
	tenants, _, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tenants" WHERE id = $1`)).
		WithArgs("tenant_missing").
		WillReturnRows(sqlmock.NewRows(tenantRowColumns))

	tenant, err := tenants.FindByID(context.Background(), "tenant_missing")
	assert.NoError(t, err)
	assert.Nil(t, tenant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_FindByEmail(t *testing.T) {
	tenants, _, mock := setupPostgres(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(tenantRowColumns).
		AddRow("tenant_1", "Acme", "ops@acme.io", "FREE", "PENDING", nil, created, created)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE email = $1 ORDER BY created_at, id LIMIT 1`)).
		WithArgs("ops@acme.io").
		WillReturnRows(rows)

	tenant, err := tenants.FindByEmail(context.Background(), "ops@acme.io")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, "tenant_1", tenant.TenantID)
	assert.Nil(t, tenant.Settings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_ListPages(t *testing.T) {
	tenants, _, mock := setupPostgres(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tenants" ORDER BY id LIMIT $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(tenantRowColumns).
			AddRow("tenant_a", "A", "a@x.io", "FREE", "PENDING", nil, created, created).
			AddRow("tenant_b", "B", "b@x.io", "FREE", "PENDING", nil, created, created).
			AddRow("tenant_c", "C", "c@x.io", "FREE", "PENDING", nil, created, created))

	first, err := tenants.List(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tenants" WHERE id > $1 ORDER BY id LIMIT $2`)).
		WithArgs("tenant_b", 3).
		WillReturnRows(sqlmock.NewRows(tenantRowColumns).
			AddRow("tenant_c", "C", "c@x.io", "FREE", "PENDING", nil, created, created))

	second, err := tenants.List(ctx, 2, first.Cursor)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "tenant_c", second.Items[0].TenantID)
	assert.Empty(t, second.Cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_ListInvalidCursor(t *testing.T) {
	tenants, _, mock := setupPostgres(t)

	_, err := tenants.List(context.Background(), 10, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_Delete(t *testing.T) {
	tenants, _, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tenants" WHERE id = $1`)).
		WithArgs("tenant_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, tenants.Delete(context.Background(), "tenant_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenantRepository_ExecError(t *testing.T) {
	tenants, _, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := tenants.Create(context.Background(), newTestTenant("Acme", "ops@acme.io"))
	assert.ErrorContains(t, err, "connection reset")
}

func orderRow(rows *sqlmock.Rows, id, tenantID, status string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, tenantID, "c1",
		[]byte(`[{"productId":"p1","name":"Widget","quantity":3,"unitPrice":9.99,"totalPrice":29.97}]`),
		29.97, "USD", status, "PENDING",
		[]byte(`{"street":"1 Main St","city":"Springfield","state":"IL","zipCode":"62701","country":"US"}`),
		nil, nil, created, created)
}

func TestPostgresOrderRepository_Create(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	order := newTestOrder("tenant_1", model.OrderPending)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WithArgs(order.OrderID, "tenant_1", "c1", sqlmock.AnyArg(), 29.97, "USD", "PENDING", "PENDING",
			sqlmock.AnyArg(), nil, nil, order.CreatedAt, order.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := orders.Create(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, order, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_FindByID(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "orders" WHERE id = $1 LIMIT 1`)).
		WithArgs("order_1").
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "order_1", "tenant_1", "SHIPPED", created))

	order, err := orders.FindByID(context.Background(), "order_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderShipped, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Springfield", order.ShippingAddress.City)
	assert.Nil(t, order.BillingAddress)
	assert.Empty(t, order.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_DeleteResolvesTenant(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "orders" WHERE id = $1 LIMIT 1`)).
		WithArgs("order_1").
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "order_1", "tenant_9", "PENDING", created))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE id = $1 AND tenant_id = $2`)).
		WithArgs("order_1", "tenant_9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, orders.Delete(context.Background(), "order_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_DeleteMissing(t *testing.T) {
	_, orders, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "orders" WHERE id = $1 LIMIT 1`)).
		WithArgs("order_missing").
		WillReturnError(sql.ErrNoRows)

	assert.NoError(t, orders.Delete(context.Background(), "order_missing"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_FindByStatusPages(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	ctx := context.Background()
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	rows := sqlmock.NewRows(orderRowColumns)
	orderRow(rows, "order_1", "tenant_1", "PENDING", t1)
	orderRow(rows, "order_2", "tenant_1", "PENDING", t2)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 ORDER BY created_at, id LIMIT $2`)).
		WithArgs("PENDING", 2).
		WillReturnRows(rows)

	first, err := orders.FindByStatus(ctx, model.OrderPending, 1, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.NotEmpty(t, first.Cursor)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 AND (created_at, id) > ($2, $3) ORDER BY created_at, id LIMIT $4`)).
		WithArgs("PENDING", t1, "order_1", 2).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "order_2", "tenant_1", "PENDING", t2))

	second, err := orders.FindByStatus(ctx, model.OrderPending, 1, first.Cursor)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "order_2", second.Items[0].OrderID)
	assert.Empty(t, second.Cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_FindByTenant(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE tenant_id = $1 ORDER BY created_at, id LIMIT $2`)).
		WithArgs("tenant_1", 51).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "order_1", "tenant_1", "PENDING", created))

	page, err := orders.FindByTenant(context.Background(), "tenant_1", 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.Cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_ListUsesCompositeKey(t *testing.T) {
	_, orders, mock := setupPostgres(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(orderRowColumns)
	orderRow(rows, "order_1", "tenant_1", "PENDING", created)
	orderRow(rows, "order_2", "tenant_2", "PENDING", created)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "orders" ORDER BY id, tenant_id LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(rows)

	first, err := orders.List(ctx, 1, "")
	require.NoError(t, err)
	require.NotEmpty(t, first.Cursor)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (id, tenant_id) > ($1, $2) ORDER BY id, tenant_id LIMIT $3`)).
		WithArgs("order_1", "tenant_1", 2).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "order_2", "tenant_2", "PENDING", created))

	second, err := orders.List(ctx, 1, first.Cursor)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "tenant_2", second.Items[0].TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_RejectsCursorFromAnotherListing(t *testing.T) {
	tenants, orders, mock := setupPostgres(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(orderRowColumns)
	orderRow(rows, "order_1", "tenant_1", "PENDING", created)
	orderRow(rows, "order_2", "tenant_1", "PENDING", created)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "orders" ORDER BY id, tenant_id LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(rows)

	listed, err := orders.List(ctx, 1, "")
	require.NoError(t, err)
	require.NotEmpty(t, listed.Cursor)

	rows = sqlmock.NewRows(orderRowColumns)
	orderRow(rows, "order_1", "tenant_1", "PENDING", created)
	orderRow(rows, "order_2", "tenant_1", "PENDING", created)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE tenant_id = $1 ORDER BY created_at, id LIMIT $2`)).
		WithArgs("tenant_1", 2).
		WillReturnRows(rows)

	byTenant, err := orders.FindByTenant(ctx, "tenant_1", 1, "")
	require.NoError(t, err)
	require.NotEmpty(t, byTenant.Cursor)

	_, err = orders.FindByTenant(ctx, "tenant_1", 1, listed.Cursor)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	_, err = orders.FindByTenant(ctx, "tenant_2", 1, byTenant.Cursor)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	_, err = orders.FindByStatus(ctx, model.OrderPending, 1, byTenant.Cursor)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	_, err = orders.List(ctx, 1, byTenant.Cursor)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	_, err = tenants.List(ctx, 1, listed.Cursor)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	assert.NoError(t, mock.ExpectationsWereMet())
}
