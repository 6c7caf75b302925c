package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hydrovia/waterdesk"
	"github.com/hydrovia/waterdesk/backend"
	"github.com/hydrovia/waterdesk/guard"
	"github.com/hydrovia/waterdesk/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Loading       bool              `json:"loading"`
	User          *session.Identity `json:"user,omitempty"`
	Permissions   []string          `json:"permissions,omitempty"`
	Destinations  []string          `json:"destinations,omitempty"`
	Landing       string            `json:"landing"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Ping(r.Context()); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLoginView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"view": "login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.limiter.Allow(ip) {
		s.log.Warn().Str("ip", ip).Msg("login rate limited")
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	scope := resolveScope(w, r)
	m, err := s.console.Session(scope)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "console unavailable")
		return
	}

	ctx := waterdesk.WithClientIP(r.Context(), ip)
	ctx = waterdesk.WithRequestID(ctx, chimw.GetReqID(ctx))

	id, err := m.Login(ctx, req.Email, req.Password)
	if err != nil {
		var le *waterdesk.LoginError
		switch {
		case errors.Is(err, waterdesk.ErrLoginInFlight):
			writeJSONError(w, http.StatusConflict, "login already in progress")
		case errors.As(err, &le):
			status := http.StatusUnauthorized
			if errors.Is(err, backend.ErrBackendUnavailable) {
				status = http.StatusBadGateway
			}
			writeJSONError(w, status, le.Message)
		default:
			writeJSONError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &id,
		Permissions:   capabilityStrings(m),
		Destinations:  allowedDestinations(m),
		Landing:       guard.Path(guard.DefaultLanding),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(guard.ScopeCookie); err == nil && c.Value != "" {
		if m, err := s.console.Session(c.Value); err == nil {
			ctx := waterdesk.WithClientIP(r.Context(), clientIP(r))
			_ = m.Logout(ctx)
		}
	}

	// Expire the scope cookie; the next visit starts a fresh scope.
	http.SetCookie(w, &http.Cookie{
		Name:     guard.ScopeCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"redirect": guard.Path(guard.DestLogin)})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{Landing: guard.Path(guard.DefaultLanding)}

	c, err := r.Cookie(guard.ScopeCookie)
	if err != nil || c.Value == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	m, err := s.console.Session(c.Value)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "console unavailable")
		return
	}

	if !m.IsAuthenticated() && !m.IsLoading() {
		if err := m.Restore(r.Context()); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "console unavailable")
			return
		}
	}

	resp.Loading = m.IsLoading()
	if id, ok := m.CurrentUser(); ok {
		resp.Authenticated = true
		resp.User = &id
		resp.Permissions = capabilityStrings(m)
		resp.Destinations = allowedDestinations(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

/*
====================================
DASHBOARD
====================================
*/

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().Dashboard(r.Context())
	})
}

func (s *Server) handleOrdersByCommunity(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().OrdersByCommunity(r.Context())
	})
}

func (s *Server) handleOrdersByDeliveryPerson(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().OrdersByDeliveryPerson(r.Context())
	})
}

func (s *Server) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().RecentOrders(r.Context())
	})
}

/*
====================================
ORDERS
====================================
*/

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	filters, err := orderFiltersFromQuery(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().Orders(r.Context(), filters)
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().Order(r.Context(), id)
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var input backend.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.proxyStatus(w, r, http.StatusCreated, func(m *waterdesk.Manager) (any, error) {
		return m.API().CreateOrder(r.Context(), input)
	})
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var body struct {
		Status backend.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return nil, m.API().UpdateOrderStatus(r.Context(), id, body.Status)
	})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return nil, m.API().DeleteOrder(r.Context(), id)
	})
}

/*
====================================
COMMUNITIES AND CLIENTS
====================================
*/

func (s *Server) handleCommunities(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().Communities(r.Context())
	})
}

func (s *Server) handleClientsByCommunity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid community id")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().ClientsByCommunity(r.Context(), id)
	})
}

/*
====================================
USERS
====================================
*/

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().Users(r.Context())
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input backend.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.proxyStatus(w, r, http.StatusCreated, func(m *waterdesk.Manager) (any, error) {
		return m.API().CreateUser(r.Context(), input)
	})
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return nil, m.API().DeactivateUser(r.Context(), id)
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID      int64  `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserID == 0 || body.NewPassword == "" {
		writeJSONError(w, http.StatusBadRequest, "userId and newPassword are required")
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return nil, m.API().ChangePassword(r.Context(), body.UserID, body.NewPassword)
	})
}

/*
====================================
AUDIT LOG
====================================
*/

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	filters, err := auditFiltersFromQuery(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().AuditLog(r.Context(), filters)
	})
}

func (s *Server) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	s.proxy(w, r, func(m *waterdesk.Manager) (any, error) {
		return m.API().AuditSummary(r.Context())
	})
}

/*
====================================
HELPERS
====================================
*/

// proxy runs one backend call on behalf of the request's session and
// renders the result. A backend 401 invalidates the session so the next
// navigation lands on login.
func (s *Server) proxy(w http.ResponseWriter, r *http.Request, call func(*waterdesk.Manager) (any, error)) {
	s.proxyStatus(w, r, http.StatusOK, call)
}

func (s *Server) proxyStatus(w http.ResponseWriter, r *http.Request, okStatus int, call func(*waterdesk.Manager) (any, error)) {
	m, ok := guard.ManagerFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "no session")
		return
	}

	out, err := call(m)
	if err != nil {
		s.writeBackendError(w, r, m, err)
		return
	}

	if out == nil {
		writeJSON(w, okStatus, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, okStatus, out)
}

func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, m *waterdesk.Manager, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		// The backend no longer accepts the token; the session is dead.
		m.Invalidate(waterdesk.WithClientIP(r.Context(), clientIP(r)))
		writeJSONError(w, http.StatusUnauthorized, "session expired")
		return
	}
	if errors.Is(err, backend.ErrBackendUnavailable) {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("backend unreachable")
		writeJSONError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		writeJSONError(w, apiErr.Status, apiErr.Error())
		return
	}

	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("backend call failed")
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func orderFiltersFromQuery(r *http.Request) (backend.OrderFilters, error) {
	var f backend.OrderFilters
	q := r.URL.Query()

	f.Status = backend.OrderStatus(q.Get("status"))

	var err error
	if f.From, err = parseDate(q.Get("from")); err != nil {
		return f, errors.New("invalid from date")
	}
	if f.To, err = parseDate(q.Get("to")); err != nil {
		return f, errors.New("invalid to date")
	}
	return f, nil
}

func auditFiltersFromQuery(r *http.Request) (backend.AuditFilters, error) {
	var f backend.AuditFilters
	q := r.URL.Query()

	f.Action = q.Get("action")

	var err error
	if f.From, err = parseDate(q.Get("from")); err != nil {
		return f, errors.New("invalid from date")
	}
	if f.To, err = parseDate(q.Get("to")); err != nil {
		return f, errors.New("invalid to date")
	}
	return f, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func capabilityStrings(m *waterdesk.Manager) []string {
	caps := m.Permissions().List()
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func allowedDestinations(m *waterdesk.Manager) []string {
	var out []string
	for _, dest := range guard.Destinations() {
		if guard.Evaluate(m, dest) == guard.DecisionRender {
			out = append(out, string(dest))
		}
	}
	return out
}

// resolveScope reads the browser scope cookie, minting one when absent.
func resolveScope(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(guard.ScopeCookie); err == nil && c.Value != "" {
		return c.Value
	}

	scope := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     guard.ScopeCookie,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return scope
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
