package auth

import (
	"context"
	stdjson "encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func newGate(t *testing.T, base string) *Gate {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewGate(base, store)
}

func TestLoginStoresTokenPair(t *testing.T) {
	access := signedToken(t, time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/login/", r.URL.Path)
		var creds map[string]string
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "admin", creds["username"])
		require.Equal(t, "secret", creds["password"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data": {"access": "`+access+`", "refresh": "refresh-token"}}`)
	}))
	defer srv.Close()

	g := newGate(t, srv.URL)
	require.NoError(t, g.Login(context.Background(), "admin", "secret"))

	got, err := g.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, access, got)
	assert.True(t, g.LoggedIn())

	// the pair survives a new gate over the same store
	g2 := NewGate(srv.URL, g.store)
	got, err = g2.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, access, got)
}

func TestLoginRejectedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail": "No active account found with the given credentials"}`)
	}))
	defer srv.Close()

	g := newGate(t, srv.URL)
	err := g.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
	assert.False(t, g.LoggedIn())
}

func TestAccessTokenWithoutSessionFailsClosed(t *testing.T) {
	g := newGate(t, "http://localhost:0")
	_, err := g.AccessToken()
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestExpiredAccessTokenRefreshes(t *testing.T) {
	fresh := signedToken(t, time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/token/refresh/", r.URL.Path)
		var body map[string]string
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-token", body["refresh"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data": {"access": "`+fresh+`"}}`)
	}))
	defer srv.Close()

	g := newGate(t, srv.URL)
	require.NoError(t, g.store.Save(TokenPair{
		Access:  signedToken(t, -time.Minute),
		Refresh: "refresh-token",
	}))
	g.pair, _ = g.store.Load()

	got, err := g.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	// the refreshed pair is persisted
	pair, err := g.store.Load()
	require.NoError(t, err)
	assert.Equal(t, fresh, pair.Access)
}

func TestExpiredTokensWithoutRefreshFailClosed(t *testing.T) {
	g := newGate(t, "http://localhost:0")
	require.NoError(t, g.store.Save(TokenPair{Access: signedToken(t, -time.Minute)}))
	g.pair, _ = g.store.Load()

	_, err := g.AccessToken()
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestLogoutClearsSession(t *testing.T) {
	g := newGate(t, "http://localhost:0")
	require.NoError(t, g.store.Save(TokenPair{Access: signedToken(t, time.Hour)}))
	g.pair, _ = g.store.Load()
	require.True(t, g.LoggedIn())

	require.NoError(t, g.Logout())
	assert.False(t, g.LoggedIn())
	_, err := g.store.Load()
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestExpiredDetection(t *testing.T) {
	assert.False(t, expired(signedToken(t, time.Hour)))
	assert.True(t, expired(signedToken(t, -time.Minute)))
	assert.True(t, expired(signedToken(t, 10*time.Second)), "tokens inside the skew window count as dead")
	assert.False(t, expired("not-a-jwt"), "unreadable tokens are left for the backend to judge")
}
