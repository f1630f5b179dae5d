package client

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"golang.org/x/sync/errgroup"
)

// dashboardPageSize is how many records the dashboard reads per collection.
// Counts are over that window only.
const dashboardPageSize = 1000

type DashboardStats struct {
	TotalTenants  int     `json:"totalTenants"`
	TotalOrders   int     `json:"totalOrders"`
	ActiveTenants int     `json:"activeTenants"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// DashboardStats fetches tenants and orders concurrently and aggregates them
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var (
		tenants Page[model.Tenant]
		orders  Page[model.Order]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tenants, err = c.ListTenants(gctx, ListOptions{Limit: dashboardPageSize})
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = c.ListOrders(gctx, OrderFilter{}, ListOptions{Limit: dashboardPageSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	return computeStats(tenants.Items, orders.Items), nil
}

func computeStats(tenants []model.Tenant, orders []model.Order) DashboardStats {
	stats := DashboardStats{TotalTenants: len(tenants), TotalOrders: len(orders)}
	for _, t := range tenants {
		if t.Status == model.TenantActive {
			stats.ActiveTenants++
		}
	}
	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
	}
	stats.TotalRevenue = revenue.InexactFloat64()
	return stats
}
