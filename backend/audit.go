package backend

import (
	"context"
	"net/url"
	"time"
)

// Audit log actions as recorded by the backend.
const (
	ActionLogin          = "LOGIN"
	ActionCreateOrder    = "CREAR_PEDIDO"
	ActionUpdateStatus   = "ACTUALIZAR_ESTADO"
	ActionDeleteOrder    = "ELIMINAR_PEDIDO"
	ActionCreateUser     = "CREAR_USUARIO"
	ActionChangePassword = "CAMBIO_PASSWORD"
	ActionDeactivateUser = "DESACTIVAR_USUARIO"
)

// AuditEntry is one row of the backend audit log.
type AuditEntry struct {
	ID        int64     `json:"idBitacora"`
	UserID    int64     `json:"idUsuario"`
	UserName  string    `json:"nombreCompleto"`
	Action    string    `json:"accion"`
	Detail    string    `json:"descripcion"`
	Timestamp time.Time `json:"fechaHora"`
}

// AuditSummary is the grouped audit-log view.
type AuditSummary struct {
	TotalLogs     int64 `json:"totalLogs"`
	LoginCount    int64 `json:"totalLogins"`
	OrdersCreated int64 `json:"pedidosCreados"`
	UsersCreated  int64 `json:"usuariosCreados"`
}

// AuditFilters narrows the audit-log listing. Zero values mean "no filter".
type AuditFilters struct {
	Action string
	From   time.Time
	To     time.Time
}

func (f AuditFilters) query() url.Values {
	q := url.Values{}
	if f.Action != "" {
		q.Set("accion", f.Action)
	}
	if !f.From.IsZero() {
		q.Set("fechaInicio", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("fechaFin", f.To.Format("2006-01-02"))
	}
	return q
}

// AuditLog lists audit entries matching the filters.
func (c *Client) AuditLog(ctx context.Context, filters AuditFilters) ([]AuditEntry, error) {
	var out []AuditEntry
	if err := c.get(ctx, "/api/Bitacora", filters.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AuditSummary fetches the grouped audit counters.
func (c *Client) AuditSummary(ctx context.Context) (*AuditSummary, error) {
	var out AuditSummary
	if err := c.get(ctx, "/api/Bitacora/agrupada", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
