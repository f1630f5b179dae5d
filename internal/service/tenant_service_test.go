package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"github.com/teresa-solution/tenant-order-service/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func setupTestServices(t *testing.T) (*TenantService, *OrderService) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cursors, err := store.NewCursorCodec(nil)
	require.NoError(t, err)
	tenants := store.NewRedisTenantRepository(rdb, "svc:", cursors)
	orders := store.NewRedisOrderRepository(rdb, "svc:", cursors)

	return NewTenantService(tenants), NewOrderService(orders, tenants)
}

func assertCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code())
}

// MockTenantRepository is a store.TenantRepository driven by expectations
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	args := m.Called(ctx, tenant)
	return args.Get(0).(model.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	args := m.Called(ctx, tenant)
	return args.Get(0).(model.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit int, cursor string) (store.Page[model.Tenant], error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).(store.Page[model.Tenant]), args.Error(1)
}

func TestTenantService_CreateTenant(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.TenantID)
	assert.Equal(t, "Acme", tenant.Name)
	assert.Equal(t, model.PlanFree, tenant.Plan)
	assert.Equal(t, model.TenantPending, tenant.Status)

	fetched, err := svc.GetTenant(ctx, tenant.TenantID)
	require.NoError(t, err)
	assert.Equal(t, tenant, fetched)
}

func TestTenantService_CreateTenant_KeepsPlan(t *testing.T) {
	svc, _ := setupTestServices(t)

	tenant, err := svc.CreateTenant(context.Background(), CreateTenantRequest{
		Name: "Big", Email: "big@corp.io", Plan: model.PlanEnterprise,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PlanEnterprise, tenant.Plan)
}

func TestTenantService_CreateTenant_DuplicateEmail(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, CreateTenantRequest{Name: "One", Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateTenant(ctx, CreateTenantRequest{Name: "Two", Email: "dup@example.com"})
	assertCode(t, err, codes.AlreadyExists)

	page, err := svc.ListTenants(ctx, 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestTenantService_CreateTenant_Validation(t *testing.T) {
	svc, _ := setupTestServices(t)

	cases := map[string]CreateTenantRequest{
		"missing name":  {Email: "x@example.com"},
		"missing email": {Name: "X"},
		"bad email":     {Name: "X", Email: "not-an-email"},
		"bad plan":      {Name: "X", Email: "x@example.com", Plan: "GOLD"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateTenant(context.Background(), req)
			assertCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestTenantService_GetTenant_NotFound(t *testing.T) {
	svc, _ := setupTestServices(t)

	_, err := svc.GetTenant(context.Background(), "tenant_missing")
	assertCode(t, err, codes.NotFound)
	st, _ := status.FromError(err)
	assert.Equal(t, "Tenant not found", st.Message())
}

func TestTenantService_UpdateTenant(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	name := "Acme Corp"
	plan := model.PlanPremium
	updated, err := svc.UpdateTenant(ctx, tenant.TenantID, model.TenantPatch{Name: &name, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.Equal(t, model.PlanPremium, updated.Plan)
	assert.Equal(t, tenant.Email, updated.Email)
	assert.Equal(t, tenant.Status, updated.Status)
	assert.Equal(t, tenant.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(tenant.UpdatedAt))

	bad := model.TenantStatus("DELETED")
	_, err = svc.UpdateTenant(ctx, tenant.TenantID, model.TenantPatch{Status: &bad})
	assertCode(t, err, codes.InvalidArgument)

	_, err = svc.UpdateTenant(ctx, "tenant_missing", model.TenantPatch{Name: &name})
	assertCode(t, err, codes.NotFound)
}

func TestTenantService_ActivateAndSuspend(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	active, err := svc.ActivateTenant(ctx, tenant.TenantID)
	require.NoError(t, err)
	assert.Equal(t, model.TenantActive, active.Status)

	suspended, err := svc.SuspendTenant(ctx, tenant.TenantID)
	require.NoError(t, err)
	assert.Equal(t, model.TenantSuspended, suspended.Status)
}

func TestTenantService_DeleteTenant(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTenant(ctx, tenant.TenantID))

	_, err = svc.GetTenant(ctx, tenant.TenantID)
	assertCode(t, err, codes.NotFound)

	err = svc.DeleteTenant(ctx, tenant.TenantID)
	assertCode(t, err, codes.NotFound)
}

func TestTenantService_ListTenants_InvalidCursor(t *testing.T) {
	svc, _ := setupTestServices(t)

	_, err := svc.ListTenants(context.Background(), 10, "bogus")
	assertCode(t, err, codes.InvalidArgument)
}

func TestTenantService_StoreFailureIsInternal(t *testing.T) {
	repo := new(MockTenantRepository)
	repo.On("FindByEmail", mock.Anything, "a@acme.com").Return(nil, errors.New("connection refused"))
	svc := NewTenantService(repo)

	_, err := svc.CreateTenant(context.Background(), CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	assertCode(t, err, codes.Internal)
	st, _ := status.FromError(err)
	assert.NotContains(t, st.Message(), "connection refused")
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTenantService_CreateFailureIsInternal(t *testing.T) {
	repo := new(MockTenantRepository)
	repo.On("FindByEmail", mock.Anything, "a@acme.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("model.Tenant")).Return(model.Tenant{}, errors.New("disk full"))
	svc := NewTenantService(repo)

	_, err := svc.CreateTenant(context.Background(), CreateTenantRequest{Name: "Acme", Email: "a@acme.com"})
	assertCode(t, err, codes.Internal)
	repo.AssertExpectations(t)
}
