package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"github.com/teresa-solution/tenant-order-service/internal/monitoring"
	"github.com/teresa-solution/tenant-order-service/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCurrency is used when an order is created without a currency
const DefaultCurrency = "USD"

// CreateOrderRequest is the input of CreateOrder. Line totals supplied by the
// caller are ignored and recomputed.
type CreateOrderRequest struct {
	TenantID        string            `json:"tenantId"`
	CustomerID      string            `json:"customerId"`
	Items           []model.OrderItem `json:"items"`
	Currency        string            `json:"currency,omitempty"`
	ShippingAddress *model.Address    `json:"shippingAddress,omitempty"`
	BillingAddress  *model.Address    `json:"billingAddress,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

type OrderService struct {
	orders  store.OrderRepository
	tenants store.TenantRepository
}

func NewOrderService(orders store.OrderRepository, tenants store.TenantRepository) *OrderService {
	return &OrderService{orders: orders, tenants: tenants}
}

// CreateOrder records a new PENDING order for an existing tenant
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (order model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.Create", withID("tenant.id", req.TenantID))
	defer func() { finishSpan(span, err) }()

	if err := validateCreateOrderRequest(&req); err != nil {
		return model.Order{}, invalidArgument(err)
	}

	tenant, err := s.tenants.FindByID(ctx, req.TenantID)
	if err != nil {
		return model.Order{}, internalError(err, "Failed to get tenant")
	}
	if tenant == nil {
		return model.Order{}, status.Error(codes.NotFound, "Tenant not found")
	}

	items, total := model.PriceItems(req.Items)
	order = model.NewOrder(model.OrderFields{
		TenantID:        req.TenantID,
		CustomerID:      req.CustomerID,
		Items:           items,
		TotalAmount:     total,
		Currency:        req.Currency,
		Status:          model.OrderPending,
		PaymentStatus:   model.PaymentPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
	})
	if order, err = s.orders.Create(ctx, order); err != nil {
		return model.Order{}, internalError(err, "Failed to create order")
	}

	span.SetAttributes(attribute.String("order.id", order.OrderID))
	monitoring.OrdersCreated.WithLabelValues(order.Currency).Inc()
	log.Info().
		Str("order_id", order.OrderID).
		Str("tenant_id", order.TenantID).
		Float64("total", order.TotalAmount).
		Msg("Order created")
	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (order model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.Get", withID("order.id", id))
	defer func() { finishSpan(span, err) }()

	return s.load(ctx, id)
}

func (s *OrderService) load(ctx context.Context, id string) (model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return model.Order{}, internalError(err, "Failed to get order")
	}
	if order == nil {
		return model.Order{}, status.Error(codes.NotFound, "Order not found")
	}
	return *order, nil
}

// UpdateOrder applies the supplied fields of patch. Any status may follow any
// other.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch model.OrderPatch) (order model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.Update", withID("order.id", id))
	defer func() { finishSpan(span, err) }()

	if err := validateOrderPatch(patch); err != nil {
		return model.Order{}, invalidArgument(err)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return model.Order{}, err
	}

	updated, err := s.orders.Update(ctx, current.WithFields(patch))
	if err != nil {
		return model.Order{}, internalError(err, "Failed to update order")
	}
	if updated.Status != current.Status {
		monitoring.OrderStatusChanges.WithLabelValues(string(updated.Status)).Inc()
		log.Info().Str("order_id", id).Str("from", string(current.Status)).Str("to", string(updated.Status)).
			Msg("Order status changed")
	}
	if updated.PaymentStatus != current.PaymentStatus {
		log.Info().Str("order_id", id).Str("payment_status", string(updated.PaymentStatus)).
			Msg("Order payment status changed")
	}
	return updated, nil
}

// DeleteOrder removes an order
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "order.Delete", withID("order.id", id))
	defer func() { finishSpan(span, err) }()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return internalError(err, "Failed to delete order")
	}
	log.Info().Str("order_id", id).Msg("Order deleted")
	return nil
}

// GetOrdersByTenant returns one page of a tenant's orders, oldest first
func (s *OrderService) GetOrdersByTenant(ctx context.Context, tenantID string, limit int, cursor string) (page store.Page[model.Order], err error) {
	ctx, span := tracer.Start(ctx, "order.ListByTenant", withID("tenant.id", tenantID))
	defer func() { finishSpan(span, err) }()

	page, err = s.orders.FindByTenant(ctx, tenantID, limit, cursor)
	if err != nil {
		return store.Page[model.Order]{}, listError(err, "Failed to list orders by tenant")
	}
	return page, nil
}

// GetOrdersByStatus returns one page of orders in st, oldest first
func (s *OrderService) GetOrdersByStatus(ctx context.Context, st model.OrderStatus, limit int, cursor string) (page store.Page[model.Order], err error) {
	ctx, span := tracer.Start(ctx, "order.ListByStatus")
	defer func() { finishSpan(span, err) }()

	if !st.Valid() {
		return store.Page[model.Order]{}, status.Error(codes.InvalidArgument, "invalid status")
	}
	page, err = s.orders.FindByStatus(ctx, st, limit, cursor)
	if err != nil {
		return store.Page[model.Order]{}, listError(err, "Failed to list orders by status")
	}
	return page, nil
}

// ListOrders returns one page of all orders
func (s *OrderService) ListOrders(ctx context.Context, limit int, cursor string) (page store.Page[model.Order], err error) {
	ctx, span := tracer.Start(ctx, "order.List")
	defer func() { finishSpan(span, err) }()

	page, err = s.orders.List(ctx, limit, cursor)
	if err != nil {
		return store.Page[model.Order]{}, listError(err, "Failed to list orders")
	}
	return page, nil
}

func (s *OrderService) setStatus(ctx context.Context, id string, st model.OrderStatus) (model.Order, error) {
	return s.UpdateOrder(ctx, id, model.OrderPatch{Status: &st})
}

func (s *OrderService) ConfirmOrder(ctx context.Context, id string) (model.Order, error) {
	return s.setStatus(ctx, id, model.OrderConfirmed)
}

func (s *OrderService) ProcessOrder(ctx context.Context, id string) (model.Order, error) {
	return s.setStatus(ctx, id, model.OrderProcessing)
}

func (s *OrderService) ShipOrder(ctx context.Context, id string) (model.Order, error) {
	return s.setStatus(ctx, id, model.OrderShipped)
}

func (s *OrderService) DeliverOrder(ctx context.Context, id string) (model.Order, error) {
	return s.setStatus(ctx, id, model.OrderDelivered)
}

func (s *OrderService) CancelOrder(ctx context.Context, id string) (model.Order, error) {
	return s.setStatus(ctx, id, model.OrderCancelled)
}

// MarkAsPaid sets the payment status to PAID and leaves the order status alone
func (s *OrderService) MarkAsPaid(ctx context.Context, id string) (model.Order, error) {
	paid := model.PaymentPaid
	return s.UpdateOrder(ctx, id, model.OrderPatch{PaymentStatus: &paid})
}

func validateCreateOrderRequest(req *CreateOrderRequest) error {
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.TenantID == "" {
		return errors.New("tenantId is required")
	}
	if req.CustomerID == "" {
		return errors.New("customerId is required")
	}
	if len(req.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("item %d: unitPrice must not be negative", i)
		}
	}
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}
	if !isCurrencyCode(req.Currency) {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

// isCurrencyCode accepts ISO 4217 shaped codes (three letters, upper-cased)
func isCurrencyCode(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func validateOrderPatch(p model.OrderPatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return errors.New("invalid status")
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return errors.New("invalid payment status")
	}
	return nil
}
