package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrovia/waterdesk"
)

func testConsole(t *testing.T, backendHandler http.Handler) *waterdesk.Console {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)

	c, err := waterdesk.New().
		WithRedis(client).
		WithBackendURL(srv.URL).
		Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func agentLoginBackend(t *testing.T) http.Handler {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"` + signed + `","idusuario":3,"nombreCompleto":"Luis Vega","email":"luis@hydrovia.test","rol":"Repartidor","idRol":3}`))
	})
}

// login authenticates one scope directly through the console and returns
// the scope cookie a browser would hold.
func login(t *testing.T, c *waterdesk.Console, scope string) *http.Cookie {
	t.Helper()

	m, err := c.Session(scope)
	require.NoError(t, err)
	_, err = m.Login(context.Background(), "luis@hydrovia.test", "s3cret")
	require.NoError(t, err)

	return &http.Cookie{Name: ScopeCookie, Value: scope}
}

func serve(t *testing.T, c *waterdesk.Console, dest Destination, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	handler := Middleware(c, dest)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := ManagerFromContext(r.Context())
		assert.True(t, ok, "rendered request must carry its manager")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, Path(dest), nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousNavigationRedirectsToLogin(t *testing.T) {
	c := testConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := serve(t, c, DestDashboard, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The visit minted a scope cookie for the follow-up login.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ScopeCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestAgentRendersOrdersButNotUsers(t *testing.T) {
	c := testConsole(t, agentLoginBackend(t))
	cookie := login(t, c, "scope-agent")

	rec := serve(t, c, DestOrders, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, c, DestUsers, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
}

func TestAuthenticatedLoginVisitBounces(t *testing.T) {
	c := testConsole(t, agentLoginBackend(t))
	cookie := login(t, c, "scope-agent")

	rec := serve(t, c, DestLogin, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
}

func TestAnonymousLoginVisitRenders(t *testing.T) {
	c := testConsole(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := serve(t, c, DestLogin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestColdScopeRestoresFromStore(t *testing.T) {
	c := testConsole(t, agentLoginBackend(t))
	cookie := login(t, c, "scope-agent")

	// Drop the warm manager; the middleware has to rehydrate from Redis.
	m, err := c.Session("scope-agent")
	require.NoError(t, err)
	m.Close()

	rec := serve(t, c, DestOrders, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownDestinationFallsBack(t *testing.T) {
	c := testConsole(t, agentLoginBackend(t))
	cookie := login(t, c, "scope-agent")

	rec := serve(t, c, Destination("reports"), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
}
