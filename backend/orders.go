package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// OrderStatus is the delivery state of an order. Values are the backend's
// own tags.
type OrderStatus string

const (
	// OrderPending is a new order waiting for a delivery run.
	OrderPending OrderStatus = "Pendiente"
	// OrderEnRoute is loaded on a truck.
	OrderEnRoute OrderStatus = "En Camino"
	// OrderDelivered is done.
	OrderDelivered OrderStatus = "Entregado"
)

// OrderType distinguishes a regular sale from a discounted delivery.
type OrderType string

const (
	// OrderSale is a regular sale.
	OrderSale OrderType = "Venta"
	// OrderDiscount is a discounted delivery.
	OrderDiscount OrderType = "Descuento"
)

// Order is one delivery order as the backend reports it.
type Order struct {
	ID            int64       `json:"idPedido"`
	ClientID      int64       `json:"idCliente"`
	ClientName    string      `json:"nombreCliente"`
	CommunityID   int64       `json:"idComunidad"`
	CommunityName string      `json:"nombreComunidad"`
	Quantity      int         `json:"cantidad"`
	Type          OrderType   `json:"tipoPedido"`
	Status        OrderStatus `json:"estadoPedido"`
	CreatedBy     string      `json:"nombreCompleto"`
	CreatedAt     time.Time   `json:"fechaCreacion"`
}

// OrderFilters narrows an order listing. Zero values mean "no filter".
type OrderFilters struct {
	Status OrderStatus
	From   time.Time
	To     time.Time
}

func (f OrderFilters) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("estado", string(f.Status))
	}
	if !f.From.IsZero() {
		q.Set("fechaInicio", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("fechaFin", f.To.Format("2006-01-02"))
	}
	return q
}

// CreateOrderInput is the payload for a new order.
type CreateOrderInput struct {
	ClientID int64     `json:"idCliente"`
	Quantity int       `json:"cantidad"`
	Type     OrderType `json:"tipoPedido"`
}

// Orders lists orders, optionally filtered by status and date range.
func (c *Client) Orders(ctx context.Context, filters OrderFilters) ([]Order, error) {
	var out []Order
	if err := c.get(ctx, "/api/Pedidos", filters.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Order fetches one order by ID.
func (c *Client) Order(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := c.get(ctx, fmt.Sprintf("/api/Pedidos/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder registers a new order and returns it as the backend stored
// it.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/api/Pedidos", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus moves an order to a new delivery state.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	body := struct {
		Status OrderStatus `json:"estado"`
	}{Status: status}

	return c.put(ctx, fmt.Sprintf("/api/Pedidos/%d/estado", id), body, nil)
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/Pedidos/%d", id))
}
