package guard

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hydrovia/waterdesk"
)

// ScopeCookie carries the browser scope. One cookie, one persisted
// session, shared across every tab of the browser.
const ScopeCookie = "waterdesk_sid"

type managerContextKey struct{}

// ManagerFromContext returns the session manager a guard middleware
// attached to the request.
func ManagerFromContext(ctx context.Context) (*waterdesk.Manager, bool) {
	m, ok := ctx.Value(managerContextKey{}).(*waterdesk.Manager)
	return m, ok
}

// Middleware guards one destination. It resolves the browser scope from
// the scope cookie (minting one when absent), restores the session from
// the store when memory is cold, and translates the guard decision into
// an HTTP response: pass-through with the manager in context, a redirect,
// or 503 while another request on the same scope is mid-login.
func Middleware(console *waterdesk.Console, dest Destination) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if console == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			scope := resolveScope(w, r)
			m, err := console.Session(scope)
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			if !m.IsAuthenticated() && !m.IsLoading() {
				// Cold manager: one store read rehydrates or confirms
				// there is nothing to rehydrate.
				if err := m.Restore(r.Context()); err != nil {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
			}

			switch Evaluate(m, dest) {
			case DecisionRender:
				console.MetricInc(waterdesk.MetricGuardRender)
				ctx := context.WithValue(r.Context(), managerContextKey{}, m)
				next.ServeHTTP(w, r.WithContext(ctx))
			case DecisionRedirectToLogin:
				console.MetricInc(waterdesk.MetricGuardRedirectLogin)
				http.Redirect(w, r, Path(DestLogin), http.StatusFound)
			case DecisionRedirectToFallback:
				console.MetricInc(waterdesk.MetricGuardRedirectFallback)
				if user, ok := m.CurrentUser(); ok {
					console.EmitAudit(r.Context(), waterdesk.AuditEvent{
						EventType: waterdesk.EventRouteDenied,
						UserID:    user.ID,
						Scope:     m.Scope(),
						Success:   false,
						Metadata:  map[string]string{"destination": string(dest)},
					})
				}
				http.Redirect(w, r, Path(DefaultLanding), http.StatusFound)
			case DecisionLoading:
				console.MetricInc(waterdesk.MetricGuardLoading)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session loading", http.StatusServiceUnavailable)
			}
		})
	}
}

// resolveScope reads the scope cookie, minting and setting a fresh one
// when the browser has none yet.
func resolveScope(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ScopeCookie); err == nil && c.Value != "" {
		return c.Value
	}

	scope := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ScopeCookie,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return scope
}
