package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/teresa-solution/tenant-order-service/internal/model"
)

// Page is one page of a list response
type Page[T any] struct {
	Items            []T    `json:"items"`
	Count            int    `json:"count"`
	LastEvaluatedKey string `json:"lastEvaluatedKey,omitempty"`
}

// ListOptions selects a page. Zero values use the server defaults.
type ListOptions struct {
	Limit  int
	Cursor string
}

func (o ListOptions) query() map[string]string {
	q := map[string]string{}
	if o.Limit > 0 {
		q["limit"] = strconv.Itoa(o.Limit)
	}
	if o.Cursor != "" {
		q["lastEvaluatedKey"] = o.Cursor
	}
	return q
}

// OrderFilter narrows ListOrders. TenantID wins when both are set.
type OrderFilter struct {
	TenantID string
	Status   model.OrderStatus
}

type TenantInput struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Plan     model.TenantPlan      `json:"plan,omitempty"`
	Settings *model.TenantSettings `json:"settings,omitempty"`
}

type OrderInput struct {
	TenantID        string            `json:"tenantId"`
	CustomerID      string            `json:"customerId"`
	Items           []model.OrderItem `json:"items"`
	Currency        string            `json:"currency,omitempty"`
	ShippingAddress *model.Address    `json:"shippingAddress,omitempty"`
	BillingAddress  *model.Address    `json:"billingAddress,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

func (c *Client) CreateTenant(ctx context.Context, in TenantInput) (model.Tenant, error) {
	var out model.Tenant
	err := c.send(c.request(ctx).SetBody(in).SetResult(&out), http.MethodPost, "/tenants")
	return out, err
}

func (c *Client) GetTenant(ctx context.Context, id string) (model.Tenant, error) {
	var out model.Tenant
	req := c.request(ctx).SetPathParam("id", id).SetResult(&out)
	err := c.send(req, http.MethodGet, "/tenants/{id}")
	return out, err
}

func (c *Client) UpdateTenant(ctx context.Context, id string, patch model.TenantPatch) (model.Tenant, error) {
	var out model.Tenant
	req := c.request(ctx).SetPathParam("id", id).SetBody(patch).SetResult(&out)
	err := c.send(req, http.MethodPut, "/tenants/{id}")
	return out, err
}

func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	return c.send(c.request(ctx).SetPathParam("id", id), http.MethodDelete, "/tenants/{id}")
}

func (c *Client) ListTenants(ctx context.Context, opts ListOptions) (Page[model.Tenant], error) {
	var out Page[model.Tenant]
	req := c.request(ctx).SetQueryParams(opts.query()).SetResult(&out)
	err := c.send(req, http.MethodGet, "/tenants")
	return out, err
}

func (c *Client) ActivateTenant(ctx context.Context, id string) (model.Tenant, error) {
	s := model.TenantActive
	return c.UpdateTenant(ctx, id, model.TenantPatch{Status: &s})
}

func (c *Client) SuspendTenant(ctx context.Context, id string) (model.Tenant, error) {
	s := model.TenantSuspended
	return c.UpdateTenant(ctx, id, model.TenantPatch{Status: &s})
}

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (model.Order, error) {
	var out model.Order
	err := c.send(c.request(ctx).SetBody(in).SetResult(&out), http.MethodPost, "/orders")
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	req := c.request(ctx).SetPathParam("id", id).SetResult(&out)
	err := c.send(req, http.MethodGet, "/orders/{id}")
	return out, err
}

func (c *Client) UpdateOrder(ctx context.Context, id string, patch model.OrderPatch) (model.Order, error) {
	var out model.Order
	req := c.request(ctx).SetPathParam("id", id).SetBody(patch).SetResult(&out)
	err := c.send(req, http.MethodPut, "/orders/{id}")
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.send(c.request(ctx).SetPathParam("id", id), http.MethodDelete, "/orders/{id}")
}

func (c *Client) ListOrders(ctx context.Context, filter OrderFilter, opts ListOptions) (Page[model.Order], error) {
	q := opts.query()
	if filter.TenantID != "" {
		q["tenantId"] = filter.TenantID
	} else if filter.Status != "" {
		q["status"] = string(filter.Status)
	}

	var out Page[model.Order]
	req := c.request(ctx).SetQueryParams(q).SetResult(&out)
	err := c.send(req, http.MethodGet, "/orders")
	return out, err
}

func (c *Client) SetOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	return c.UpdateOrder(ctx, id, model.OrderPatch{Status: &status})
}

func (c *Client) ConfirmOrder(ctx context.Context, id string) (model.Order, error) {
	return c.SetOrderStatus(ctx, id, model.OrderConfirmed)
}

func (c *Client) ProcessOrder(ctx context.Context, id string) (model.Order, error) {
	return c.SetOrderStatus(ctx, id, model.OrderProcessing)
}

func (c *Client) ShipOrder(ctx context.Context, id string) (model.Order, error) {
	return c.SetOrderStatus(ctx, id, model.OrderShipped)
}

func (c *Client) DeliverOrder(ctx context.Context, id string) (model.Order, error) {
	return c.SetOrderStatus(ctx, id, model.OrderDelivered)
}

func (c *Client) CancelOrder(ctx context.Context, id string) (model.Order, error) {
	return c.SetOrderStatus(ctx, id, model.OrderCancelled)
}

func (c *Client) MarkAsPaid(ctx context.Context, id string) (model.Order, error) {
	paid := model.PaymentPaid
	return c.UpdateOrder(ctx, id, model.OrderPatch{PaymentStatus: &paid})
}

// ListAllTenants follows cursors until the listing is exhausted
func (c *Client) ListAllTenants(ctx context.Context, pageSize int) ([]model.Tenant, error) {
	return collectAll(ctx, pageSize, func(opts ListOptions) (Page[model.Tenant], error) {
		return c.ListTenants(ctx, opts)
	})
}

// ListAllOrders follows cursors until the filtered listing is exhausted
func (c *Client) ListAllOrders(ctx context.Context, filter OrderFilter, pageSize int) ([]model.Order, error) {
	return collectAll(ctx, pageSize, func(opts ListOptions) (Page[model.Order], error) {
		return c.ListOrders(ctx, filter, opts)
	})
}

func collectAll[T any](ctx context.Context, pageSize int, fetch func(ListOptions) (Page[T], error)) ([]T, error) {
	var all []T
	opts := ListOptions{Limit: pageSize}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.LastEvaluatedKey == "" {
			return all, nil
		}
		opts.Cursor = page.LastEvaluatedKey
	}
}
