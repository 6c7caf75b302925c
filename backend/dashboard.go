package backend

import "context"

// DashboardSummary carries the headline counters for the landing view.
type DashboardSummary struct {
	TotalOrders     int64 `json:"totalPedidos"`
	PendingOrders   int64 `json:"pedidosPendientes"`
	EnRouteOrders   int64 `json:"pedidosEnCamino"`
	DeliveredOrders int64 `json:"pedidosEntregados"`
	TotalClients    int64 `json:"totalClientes"`
	TotalUsers      int64 `json:"totalUsuarios"`
}

// CommunityOrderCount is one bar of the orders-by-community chart.
type CommunityOrderCount struct {
	Community string `json:"nombreComunidad"`
	Count     int64  `json:"totalPedidos"`
}

// DeliveryOrderCount is one bar of the orders-by-delivery-person chart.
type DeliveryOrderCount struct {
	DeliveryPerson string `json:"nombreCompleto"`
	Count          int64  `json:"totalPedidos"`
}

// Dashboard fetches the headline counters.
func (c *Client) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := c.get(ctx, "/api/Dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrdersByCommunity fetches the per-community order totals.
func (c *Client) OrdersByCommunity(ctx context.Context) ([]CommunityOrderCount, error) {
	var out []CommunityOrderCount
	if err := c.get(ctx, "/api/Dashboard/orders-by-community", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrdersByDeliveryPerson fetches the per-agent order totals.
func (c *Client) OrdersByDeliveryPerson(ctx context.Context) ([]DeliveryOrderCount, error) {
	var out []DeliveryOrderCount
	if err := c.get(ctx, "/api/Dashboard/orders-by-delivery-person", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentOrders fetches the latest orders for the dashboard table.
func (c *Client) RecentOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.get(ctx, "/api/Dashboard/recent-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
