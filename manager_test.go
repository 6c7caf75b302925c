package waterdesk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrovia/waterdesk/backend"
	"github.com/hydrovia/waterdesk/permission"
	"github.com/hydrovia/waterdesk/session"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func loginHandler(t *testing.T, tokenFn func() string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"` + tokenFn() + `","idusuario":7,"nombreCompleto":"Ana Morales","email":"ana@hydrovia.test","rol":"Repartidor","idRol":3}`))
	}
}

func newTestConsole(t *testing.T, handler http.Handler) (*Console, *miniredis.Miniredis, *httptest.Server) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New().
		WithRedis(client).
		WithBackendURL(srv.URL).
		WithMetricsEnabled(true).
		Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c, mr, srv
}

func TestLoginPersistsAndAuthorizes(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	c, mr, _ := newTestConsole(t, loginHandler(t, func() string { return live }))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	id, err := m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.ID)
	assert.Equal(t, permission.RoleDeliveryAgent, id.Role)

	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsLoading())
	assert.Equal(t, live, m.Token())

	// Delivery agents take and create orders but never manage staff.
	assert.True(t, m.HasPermission(permission.CapOrders))
	assert.True(t, m.HasPermission(permission.CapCreateOrder))
	assert.False(t, m.HasPermission(permission.CapUsers))

	// Both halves of the session landed in the store.
	assert.True(t, mr.Exists("waterdesk:scope-1:token"))
	assert.True(t, mr.Exists("waterdesk:scope-1:identity"))

	assert.Equal(t, uint64(1), c.metrics.Value(MetricLoginSuccess))
}

func TestLoginInvalidCredentialsKeepsAPIMessage(t *testing.T) {
	c, mr, _ := newTestConsole(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "ana@hydrovia.test", "wrong")
	require.Error(t, err)

	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Invalid credentials", le.Message)
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))

	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.IsLoading())
	assert.False(t, mr.Exists("waterdesk:scope-1:token"))
	assert.Equal(t, uint64(1), c.metrics.Value(MetricLoginFailure))
}

func TestLoginBackendDownProducesDisplayableError(t *testing.T) {
	c, _, srv := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.Error(t, err)

	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.NotEmpty(t, le.Message)
	assert.True(t, errors.Is(err, backend.ErrBackendUnavailable))
	assert.False(t, m.IsLoading())
}

func TestLoginRejectedWhileInFlight(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	c, _, _ := newTestConsole(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		loginHandler(t, func() string { return live })(w, r)
	}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
		done <- err
	}()

	<-started
	assert.True(t, m.IsLoading())

	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	assert.ErrorIs(t, err, ErrLoginInFlight)
	assert.Equal(t, uint64(1), c.metrics.Value(MetricLoginRejectedInFlight))

	close(release)
	require.NoError(t, <-done)
	assert.True(t, m.IsAuthenticated())
}

func TestLogoutAfterLoginDiscardsLateResult(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	c, mr, _ := newTestConsole(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		loginHandler(t, func() string { return live })(w, r)
	}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
		done <- err
	}()

	<-started
	require.NoError(t, m.Logout(context.Background()))
	close(release)

	assert.ErrorIs(t, <-done, ErrLoginAborted)
	assert.False(t, m.IsAuthenticated())
	assert.False(t, mr.Exists("waterdesk:scope-1:token"))
	assert.False(t, mr.Exists("waterdesk:scope-1:identity"))
}

func TestLogoutClearsMemoryAndStore(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	c, mr, _ := newTestConsole(t, loginHandler(t, func() string { return live }))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, permission.Set(0), m.Permissions())
	assert.False(t, mr.Exists("waterdesk:scope-1:token"))
	assert.False(t, mr.Exists("waterdesk:scope-1:identity"))
}

func TestLogoutSurvivesStoreOutage(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	c, mr, _ := newTestConsole(t, loginHandler(t, func() string { return live }))

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)

	mr.SetError("redis gone")
	require.NoError(t, m.Logout(context.Background()))
	assert.False(t, m.IsAuthenticated())
}

func TestRestoreRoundTrip(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	c, _, _ := newTestConsole(t, loginHandler(t, func() string { return live }))

	m, err := c.Session("scope-1")
	require.NoError(t, err)
	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)

	// A later request for the same scope starts from persistence.
	m.Close()
	m2, err := c.Session("scope-1")
	require.NoError(t, err)
	require.NotSame(t, m, m2)

	require.NoError(t, m2.Restore(context.Background()))
	assert.True(t, m2.IsAuthenticated())

	id, ok := m2.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Ana Morales", id.DisplayName)
	assert.True(t, m2.HasPermission(permission.CapCreateOrder))
	assert.Equal(t, uint64(1), c.metrics.Value(MetricSessionRestored))
}

func TestRestoreDropsExpiredToken(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Hour))
	c, mr, _ := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	mr2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer mr2.Close()
	store := session.NewStore(mr2, "waterdesk", time.Hour)
	require.NoError(t, store.Save(context.Background(), "scope-1", &session.Session{
		Token: expired,
		Identity: session.Identity{
			ID:          7,
			DisplayName: "Ana Morales",
			Role:        permission.RoleDeliveryAgent,
		},
	}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)
	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.IsAuthenticated())
	assert.False(t, mr.Exists("waterdesk:scope-1:token"))
	assert.Equal(t, uint64(1), c.metrics.Value(MetricSessionDropped))
}

func TestRestoreWithEmptyStoreIsClean(t *testing.T) {
	c, _, _ := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)
	require.NoError(t, m.Restore(context.Background()))
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.IsLoading())
}

func TestInvalidateRecordsDroppedSession(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	c, mr, _ := newTestConsole(t, loginHandler(t, func() string { return live }))

	m, err := c.Session("scope-1")
	require.NoError(t, err)
	_, err = m.Login(context.Background(), "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)

	m.Invalidate(context.Background())
	assert.False(t, m.IsAuthenticated())
	assert.False(t, mr.Exists("waterdesk:scope-1:token"))
	assert.Equal(t, uint64(1), c.metrics.Value(MetricSessionDropped))
	assert.Equal(t, uint64(0), c.metrics.Value(MetricLogout))
}

func TestClosedManagerRejectsEverything(t *testing.T) {
	c, _, _ := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	m, err := c.Session("scope-1")
	require.NoError(t, err)
	m.Close()

	_, err = m.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.ErrorIs(t, m.Restore(context.Background()), ErrManagerClosed)
	assert.ErrorIs(t, m.Logout(context.Background()), ErrManagerClosed)
}

func TestConsoleSessionSharesManagerPerScope(t *testing.T) {
	c, _, _ := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	a, err := c.Session("scope-1")
	require.NoError(t, err)
	b, err := c.Session("scope-1")
	require.NoError(t, err)
	other, err := c.Session("scope-2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestClosedConsoleMintsNoManagers(t *testing.T) {
	c, _, _ := newTestConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c.Close()

	_, err := c.Session("scope-1")
	assert.ErrorIs(t, err, ErrConsoleClosed)
}

func TestAuditEventsReachSink(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	srv := httptest.NewServer(loginHandler(t, func() string { return live }))
	t.Cleanup(srv.Close)

	sink := NewChannelSink(16)
	c, err := New().
		WithRedis(client).
		WithBackendURL(srv.URL).
		WithAuditSink(sink).
		Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	m, err := c.Session("scope-1")
	require.NoError(t, err)

	ctx := WithClientIP(context.Background(), "10.0.0.9")
	_, err = m.Login(ctx, "ana@hydrovia.test", "s3cret")
	require.NoError(t, err)

	select {
	case ev := <-sink.Events():
		assert.Equal(t, EventLogin, ev.EventType)
		assert.Equal(t, int64(7), ev.UserID)
		assert.Equal(t, "scope-1", ev.Scope)
		assert.Equal(t, "10.0.0.9", ev.IP)
		assert.True(t, ev.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event delivered")
	}
}
