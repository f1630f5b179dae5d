package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderReturned   OrderStatus = "RETURNED"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// OrderItem is one line of an order. TotalPrice is derived from Quantity and
// UnitPrice when the order is written.
type OrderItem struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Order is a purchase record belonging to a tenant's customer
type Order struct {
	OrderID         string        `json:"orderId"`
	TenantID        string        `json:"tenantId"`
	CustomerID      string        `json:"customerId"`
	Items           []OrderItem   `json:"items"`
	TotalAmount     float64       `json:"totalAmount"`
	Currency        string        `json:"currency"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	ShippingAddress *Address      `json:"shippingAddress,omitempty"`
	BillingAddress  *Address      `json:"billingAddress,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// OrderFields are the caller-supplied fields of a new order
type OrderFields struct {
	TenantID        string
	CustomerID      string
	Items           []OrderItem
	TotalAmount     float64
	Currency        string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	ShippingAddress *Address
	BillingAddress  *Address
	Notes           string
}

// OrderPatch carries the fields an order update may replace. Nil fields are kept.
type OrderPatch struct {
	Status        *OrderStatus   `json:"status,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// NewOrder mints an identifier and timestamps and copies f verbatim
func NewOrder(f OrderFields) Order {
	ts := now()
	items := make([]OrderItem, len(f.Items))
	copy(items, f.Items)
	return Order{
		OrderID:         newID("order"),
		TenantID:        f.TenantID,
		CustomerID:      f.CustomerID,
		Items:           items,
		TotalAmount:     f.TotalAmount,
		Currency:        f.Currency,
		Status:          f.Status,
		PaymentStatus:   f.PaymentStatus,
		ShippingAddress: f.ShippingAddress,
		BillingAddress:  f.BillingAddress,
		Notes:           f.Notes,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// WithFields returns a copy of o with the non-nil fields of p applied
func (o Order) WithFields(p OrderPatch) Order {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	o.UpdatedAt = touch(o.UpdatedAt)
	return o
}

func (o Order) WithStatus(s OrderStatus) Order {
	return o.WithFields(OrderPatch{Status: &s})
}

func (o Order) WithPaymentStatus(s PaymentStatus) Order {
	return o.WithFields(OrderPatch{PaymentStatus: &s})
}

// CalculateTotal sums the stored line totals
func (o Order) CalculateTotal() float64 {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	return sum.InexactFloat64()
}

// PriceItems returns a copy of items with every TotalPrice recomputed as
// Quantity * UnitPrice, together with the order total. Caller-supplied line
// totals are ignored.
func PriceItems(items []OrderItem) ([]OrderItem, float64) {
	priced := make([]OrderItem, len(items))
	total := decimal.Zero
	for i, it := range items {
		line := decimal.NewFromInt(int64(it.Quantity)).Mul(decimal.NewFromFloat(it.UnitPrice))
		it.TotalPrice = line.InexactFloat64()
		priced[i] = it
		total = total.Add(line)
	}
	return priced, total.InexactFloat64()
}
