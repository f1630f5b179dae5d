package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	tenant := NewTenant(TenantFields{
		Name:   "Test Tenant",
		Email:  "test@example.com",
		Plan:   PlanFree,
		Status: TenantPending,
	})

	assert.True(t, strings.HasPrefix(tenant.TenantID, "tenant_"))
	assert.Equal(t, "Test Tenant", tenant.Name)
	assert.Equal(t, "test@example.com", tenant.Email)
	assert.Equal(t, PlanFree, tenant.Plan)
	assert.Equal(t, TenantPending, tenant.Status)
	assert.False(t, tenant.CreatedAt.IsZero())
	assert.Equal(t, tenant.CreatedAt, tenant.UpdatedAt)
	assert.Nil(t, tenant.Settings)
}

func TestNewTenant_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewTenant(TenantFields{Name: "t"}).TenantID
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTenant_WithFields(t *testing.T) {
	original := NewTenant(TenantFields{
		Name:   "Test Tenant",
		Email:  "test@example.com",
		Plan:   PlanFree,
		Status: TenantPending,
	})
	name := "Updated Tenant"
	plan := PlanPremium
	status := TenantActive

	updated := original.WithFields(TenantPatch{Name: &name, Plan: &plan, Status: &status})

	assert.Equal(t, "Updated Tenant", updated.Name)
	assert.Equal(t, PlanPremium, updated.Plan)
	assert.Equal(t, TenantActive, updated.Status)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
	assert.Equal(t, original.TenantID, updated.TenantID)
	assert.Equal(t, original.Email, updated.Email)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)

	// the receiver is untouched
	assert.Equal(t, "Test Tenant", original.Name)
	assert.Equal(t, TenantPending, original.Status)
}

func TestTenant_WithFieldsKeepsSettings(t *testing.T) {
	maxUsers := 5
	original := NewTenant(TenantFields{
		Name:     "Acme",
		Settings: &TenantSettings{MaxUsers: &maxUsers, Features: []string{"sso"}},
	})

	updated := original.WithStatus(TenantSuspended)

	assert.Equal(t, TenantSuspended, updated.Status)
	assert.Same(t, original.Settings, updated.Settings)
}

func TestTouch_AlwaysAdvances(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	ts := touch(future)
	assert.True(t, ts.After(future))
}

func testItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p1", Name: "Widget", Quantity: 3, UnitPrice: 9.99, TotalPrice: 1},
		{ProductID: "p2", Name: "Gadget", Quantity: 2, UnitPrice: 10.00, TotalPrice: 999},
	}
}

func TestPriceItems(t *testing.T) {
	items := testItems()
	priced, total := PriceItems(items)

	require.Len(t, priced, 2)
	assert.Equal(t, 29.97, priced[0].TotalPrice)
	assert.Equal(t, 20.0, priced[1].TotalPrice)
	assert.Equal(t, 49.97, total)

	// input is not modified
	assert.Equal(t, 1.0, items[0].TotalPrice)
}

func TestPriceItems_Empty(t *testing.T) {
	priced, total := PriceItems(nil)
	assert.Empty(t, priced)
	assert.Equal(t, 0.0, total)
}

func TestNewOrder(t *testing.T) {
	items, total := PriceItems(testItems())
	order := NewOrder(OrderFields{
		TenantID:      "tenant_123",
		CustomerID:    "customer_456",
		Items:         items,
		TotalAmount:   total,
		Currency:      "USD",
		Status:        OrderPending,
		PaymentStatus: PaymentPending,
	})

	assert.True(t, strings.HasPrefix(order.OrderID, "order_"))
	assert.Equal(t, "tenant_123", order.TenantID)
	assert.Equal(t, "customer_456", order.CustomerID)
	assert.Equal(t, items, order.Items)
	assert.Equal(t, 49.97, order.TotalAmount)
	assert.Equal(t, order.TotalAmount, order.CalculateTotal())
	assert.Equal(t, OrderPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestOrder_WithStatus(t *testing.T) {
	order := NewOrder(OrderFields{TenantID: "t", Status: OrderPending, PaymentStatus: PaymentPending, Notes: "leave at door"})

	updated := order.WithStatus(OrderConfirmed)

	assert.Equal(t, OrderConfirmed, updated.Status)
	assert.Equal(t, PaymentPending, updated.PaymentStatus)
	assert.Equal(t, "leave at door", updated.Notes)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt))
	assert.Equal(t, OrderPending, order.Status)
}

func TestOrder_WithPaymentStatus(t *testing.T) {
	order := NewOrder(OrderFields{TenantID: "t", Status: OrderShipped, PaymentStatus: PaymentPending})

	updated := order.WithPaymentStatus(PaymentPaid)

	assert.Equal(t, PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, OrderShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt))
}

func TestOrder_WithFieldsNoTransitionRules(t *testing.T) {
	order := NewOrder(OrderFields{TenantID: "t", Status: OrderDelivered, PaymentStatus: PaymentPaid})

	back := order.WithStatus(OrderPending)

	assert.Equal(t, OrderPending, back.Status)
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, PlanEnterprise.Valid())
	assert.False(t, TenantPlan("GOLD").Valid())
	assert.True(t, TenantInactive.Valid())
	assert.False(t, TenantStatus("").Valid())
	assert.True(t, OrderReturned.Valid())
	assert.False(t, OrderStatus("LOST").Valid())
	assert.True(t, PaymentPartiallyRefunded.Valid())
	assert.False(t, PaymentStatus("paid").Valid())
}
