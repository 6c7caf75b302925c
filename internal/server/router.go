package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hydrovia/waterdesk"
	"github.com/hydrovia/waterdesk/guard"
	promexport "github.com/hydrovia/waterdesk/metrics/export/prometheus"
	"github.com/hydrovia/waterdesk/permission"
)

// Router builds the gateway's route tree. Every view-scoped group runs
// behind the guard middleware for its destination; mutations carry an
// additional capability check on top.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		r.Handle("/metrics", promexport.Handler(s.console))
	}

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/session", s.handleSession)

	guarded := func(dest guard.Destination, mount func(chi.Router)) {
		r.Route(guard.Path(dest), func(gr chi.Router) {
			gr.Use(guard.Middleware(s.console, dest))
			mount(gr)
		})
	}

	guarded(guard.DestLogin, func(gr chi.Router) {
		gr.Get("/", s.handleLoginView)
	})

	guarded(guard.DestDashboard, func(gr chi.Router) {
		gr.Get("/", s.handleDashboard)
		gr.Get("/orders-by-community", s.handleOrdersByCommunity)
		gr.Get("/orders-by-delivery-person", s.handleOrdersByDeliveryPerson)
		gr.Get("/recent-orders", s.handleRecentOrders)
	})

	guarded(guard.DestOrders, func(gr chi.Router) {
		gr.Get("/", s.handleListOrders)
		gr.Post("/", s.requireCapability(permission.CapCreateOrder, s.handleCreateOrder))
		gr.Get("/{id}", s.handleGetOrder)
		gr.Put("/{id}/status", s.handleUpdateOrderStatus)
		gr.Delete("/{id}", s.requireCapability(permission.CapDeleteOrder, s.handleDeleteOrder))
	})

	guarded(guard.DestCommunities, func(gr chi.Router) {
		gr.Get("/", s.handleCommunities)
		gr.Get("/{id}/clients", s.handleClientsByCommunity)
	})

	guarded(guard.DestClients, func(gr chi.Router) {
		gr.Get("/", s.handleCommunities)
		gr.Get("/{id}", s.handleClientsByCommunity)
	})

	guarded(guard.DestUsers, func(gr chi.Router) {
		gr.Get("/", s.handleListUsers)
		gr.Post("/", s.requireCapability(permission.CapCreateUser, s.handleCreateUser))
		gr.Put("/{id}/deactivate", s.requireCapability(permission.CapDeactivateUser, s.handleDeactivateUser))
		gr.Post("/change-password", s.requireCapability(permission.CapChangePassword, s.handleChangePassword))
	})

	guarded(guard.DestAuditLog, func(gr chi.Router) {
		gr.Get("/", s.handleAuditLog)
		gr.Get("/summary", s.handleAuditSummary)
	})

	return r
}

// accessLog writes one structured line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// requireCapability gates a mutation on one capability of the current
// session, beyond the view-level guard already passed.
func (s *Server) requireCapability(c permission.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := guard.ManagerFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "no session")
			return
		}

		if !m.HasPermission(c) {
			id, _ := m.CurrentUser()
			s.console.EmitAudit(r.Context(), waterdesk.AuditEvent{
				EventType: waterdesk.EventRouteDenied,
				UserID:    id.ID,
				Scope:     m.Scope(),
				IP:        clientIP(r),
				Metadata:  map[string]string{"capability": string(c), "path": r.URL.Path},
			})
			s.log.Warn().
				Int64("user_id", id.ID).
				Str("capability", string(c)).
				Str("path", r.URL.Path).
				Msg("capability denied")
			writeJSONError(w, http.StatusForbidden, "permission denied")
			return
		}

		next(w, r)
	}
}
