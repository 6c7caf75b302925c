package waterdesk

import (
	"context"
	"sync"
	"time"

	"github.com/hydrovia/waterdesk/backend"
	"github.com/hydrovia/waterdesk/permission"
	"github.com/hydrovia/waterdesk/session"
	"github.com/hydrovia/waterdesk/token"
)

// Manager holds the session state of one browser scope: the current
// session (if any), its resolved capability set, and a loading flag
// covering in-flight logins. All methods are safe for concurrent use.
//
// The in-memory state is a cache over the persisted store: Login writes
// the store before it updates memory, so a crash between the two leaves
// a restorable session rather than a phantom one.
type Manager struct {
	scope   string
	console *Console
	api     *backend.Client

	mu      sync.Mutex
	current *session.Session
	perms   permission.Set
	loading bool
	closed  bool
	// seq advances on every logout and close; a login that started
	// under an older seq discards its result.
	seq uint64
}

func newManager(c *Console, scope string) (*Manager, error) {
	m := &Manager{
		scope:   scope,
		console: c,
	}

	api, err := backend.New(c.config.Backend.BaseURL, m.bearerToken, backend.WithHTTPClient(c.http))
	if err != nil {
		return nil, err
	}
	m.api = api

	return m, nil
}

// bearerToken is the manager's backend.TokenSource.
func (m *Manager) bearerToken(context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// API returns the backend client bound to this manager's session token.
// Requests made through it carry the current bearer token, or none when
// the manager is unauthenticated.
func (m *Manager) API() *backend.Client {
	return m.api
}

// Scope returns the browser scope this manager serves.
func (m *Manager) Scope() string {
	return m.scope
}

// Restore rehydrates the session from the persisted store. A missing,
// corrupt, or expired persisted session leaves the manager
// unauthenticated without error; only a closed manager is an error.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.loading = true
	seq := m.seq
	m.mu.Unlock()

	sess := m.console.store.Load(ctx, m.scope)

	m.mu.Lock()
	m.loading = false
	if m.closed || m.seq != seq {
		m.mu.Unlock()
		return ErrManagerClosed
	}

	if sess == nil {
		m.current = nil
		m.perms = 0
		m.mu.Unlock()
		return nil
	}

	if token.Expired(sess.Token, time.Now()) {
		m.current = nil
		m.perms = 0
		m.mu.Unlock()

		m.console.store.Clear(ctx, m.scope)
		m.console.metrics.Inc(MetricSessionDropped)
		m.emit(ctx, AuditEvent{
			EventType: EventSessionDropped,
			UserID:    sess.Identity.ID,
			Success:   true,
			Metadata:  map[string]string{"reason": "token expired"},
		})
		return nil
	}

	m.current = sess
	m.perms = permission.Resolve(sess.Identity.Role)
	m.mu.Unlock()

	m.console.metrics.Inc(MetricSessionRestored)
	m.emit(ctx, AuditEvent{
		EventType: EventSessionRestored,
		UserID:    sess.Identity.ID,
		Success:   true,
	})
	return nil
}

// Login exchanges credentials for a session. The new session is
// persisted first and only then installed in memory. While a login is
// in flight the manager reports loading and rejects further logins with
// [ErrLoginInFlight]. Credential and transport failures come back as a
// [*LoginError] carrying a displayable message.
func (m *Manager) Login(ctx context.Context, email, password string) (session.Identity, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return session.Identity{}, ErrManagerClosed
	}
	if m.loading {
		m.mu.Unlock()
		m.console.metrics.Inc(MetricLoginRejectedInFlight)
		return session.Identity{}, ErrLoginInFlight
	}
	m.loading = true
	seq := m.seq
	m.mu.Unlock()

	start := time.Now()
	resp, err := m.api.Login(ctx, email, password)
	m.console.metrics.Observe(MetricLoginLatency, time.Since(start))

	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()

		m.console.metrics.Inc(MetricLoginFailure)
		m.emit(ctx, AuditEvent{
			EventType: EventLoginFailed,
			Success:   false,
			Error:     err.Error(),
			Metadata:  map[string]string{"email": email},
		})
		return session.Identity{}, newLoginError(err)
	}

	sess := &session.Session{
		Token: resp.Token,
		Identity: session.Identity{
			ID:          resp.UserID,
			DisplayName: resp.FullName,
			Email:       resp.Email,
			Role:        permission.Role(resp.Role),
			RoleID:      resp.RoleID,
		},
	}

	if err := m.console.store.Save(ctx, m.scope, sess); err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()

		m.console.metrics.Inc(MetricLoginFailure)
		m.emit(ctx, AuditEvent{
			EventType: EventLoginFailed,
			UserID:    sess.Identity.ID,
			Success:   false,
			Error:     err.Error(),
		})
		return session.Identity{}, err
	}

	m.mu.Lock()
	m.loading = false
	if m.closed || m.seq != seq {
		closed := m.closed
		m.mu.Unlock()

		// The scope was logged out or closed while the exchange was in
		// the air. Remove the copy we just persisted and discard.
		m.console.store.Clear(ctx, m.scope)
		if closed {
			return session.Identity{}, ErrManagerClosed
		}
		return session.Identity{}, ErrLoginAborted
	}
	m.current = sess
	m.perms = permission.Resolve(sess.Identity.Role)
	m.mu.Unlock()

	m.console.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, AuditEvent{
		EventType: EventLogin,
		UserID:    sess.Identity.ID,
		Success:   true,
		Metadata:  map[string]string{"role": string(sess.Identity.Role)},
	})
	return sess.Identity, nil
}

// Logout drops the in-memory session and clears the persisted copy. The
// store clear is best effort: once memory is cleared the session is gone
// even if Redis is unreachable, and the persisted copy dies by TTL.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.seq++
	had := m.current
	m.current = nil
	m.perms = 0
	m.mu.Unlock()

	m.console.store.Clear(ctx, m.scope)

	if had != nil {
		m.console.metrics.Inc(MetricLogout)
		m.emit(ctx, AuditEvent{
			EventType: EventLogout,
			UserID:    had.Identity.ID,
			Success:   true,
		})
	}
	return nil
}

// Invalidate drops the session after the backend rejected its token.
// Unlike Logout it records the drop as a dropped session, not a logout.
func (m *Manager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.seq++
	had := m.current
	m.current = nil
	m.perms = 0
	m.mu.Unlock()

	m.console.store.Clear(ctx, m.scope)

	if had != nil {
		m.console.metrics.Inc(MetricSessionDropped)
		m.emit(ctx, AuditEvent{
			EventType: EventSessionDropped,
			UserID:    had.Identity.ID,
			Success:   true,
			Metadata:  map[string]string{"reason": "token rejected"},
		})
	}
}

// IsLoading reports whether a login or restore is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// IsAuthenticated reports whether the manager holds a live session.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// CurrentUser returns the authenticated identity, if any.
func (m *Manager) CurrentUser() (session.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return session.Identity{}, false
	}
	return m.current.Identity, true
}

// Token returns the current bearer token, or "" when unauthenticated.
func (m *Manager) Token() string {
	return m.bearerToken(context.Background())
}

// Permissions returns the capability set resolved from the session's
// role. Empty when unauthenticated.
func (m *Manager) Permissions() permission.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perms
}

// HasPermission reports whether the current session's role grants one
// capability. False when unauthenticated.
func (m *Manager) HasPermission(c permission.Capability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.perms.Has(c)
}

// Close detaches the manager from the console. The persisted session is
// left alone so the scope can be restored later. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.seq++
	m.current = nil
	m.perms = 0
	m.mu.Unlock()

	m.console.release(m.scope)
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	event.Timestamp = time.Now().UTC()
	event.Scope = m.scope
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["request_id"] = rid
	}
	m.console.audit.Emit(ctx, event)
}
