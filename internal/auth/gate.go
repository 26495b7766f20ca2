package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// expirySkew rejects tokens this close to expiry so an in-flight
// request does not race the deadline.
const expirySkew = 30 * time.Second

// loginResponse matches the backend login/refresh envelope
type loginResponse struct {
	Data struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// Gate owns the operator session. It implements the token source
// consumed by the backend client: every request asks the gate for a
// live access token, and the gate refreshes or fails closed.
type Gate struct {
	base    string
	store   *Store
	timeout time.Duration

	mu   sync.Mutex
	pair TokenPair
}

// NewGate creates a session gate against the backend at base, loading
// any previously persisted session.
func NewGate(base string, store *Store) *Gate {
	g := &Gate{base: base, store: store, timeout: 15 * time.Second}
	if pair, err := store.Load(); err == nil {
		g.pair = pair
	}
	return g
}

// Login exchanges credentials for a token pair and persists it.
// Rejected credentials surface as an auth error with the server's
// message.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	var body []byte
	var code int
	err := gout.POST(g.base + "/user/login/").
		WithContext(ctx).
		SetTimeout(g.timeout).
		SetJSON(gout.H{"username": username, "password": password}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return &domain.APIError{Kind: domain.KindNetwork, Message: err.Error()}
	}

	var resp loginResponse
	_ = json.Unmarshal(body, &resp)
	if code >= 400 || resp.Data.Access == "" {
		msg := resp.Detail
		if msg == "" {
			msg = "login rejected"
		}
		kind := domain.KindAuth
		if code >= 500 {
			kind = domain.KindServer
		}
		return domain.NewAPIError(kind, code, msg)
	}

	pair := TokenPair{Access: resp.Data.Access, Refresh: resp.Data.Refresh}
	g.mu.Lock()
	g.pair = pair
	g.mu.Unlock()
	if err := g.store.Save(pair); err != nil {
		zap.L().Warn("persisting session failed", zap.Error(err))
	}
	zap.L().Info("operator logged in", zap.String("username", username))
	return nil
}

// AccessToken returns a live access token, refreshing a stale one when
// a refresh token is available. With no usable session it returns
// ErrNoToken so callers fail closed instead of sending anonymous
// requests.
func (g *Gate) AccessToken() (string, error) {
	g.mu.Lock()
	pair := g.pair
	g.mu.Unlock()

	if pair.Access == "" {
		return "", domain.ErrNoToken
	}
	if !expired(pair.Access) {
		return pair.Access, nil
	}
	if pair.Refresh == "" || expired(pair.Refresh) {
		return "", domain.ErrNoToken
	}
	refreshed, err := g.refresh(pair.Refresh)
	if err != nil {
		zap.L().Warn("token refresh failed", zap.Error(err))
		return "", domain.ErrNoToken
	}
	return refreshed, nil
}

// LoggedIn reports whether a non-expired session exists
func (g *Gate) LoggedIn() bool {
	_, err := g.AccessToken()
	return err == nil
}

// Logout drops the in-memory session and the persisted copy
func (g *Gate) Logout() error {
	g.mu.Lock()
	g.pair = TokenPair{}
	g.mu.Unlock()
	return g.store.Clear()
}

func (g *Gate) refresh(refreshToken string) (string, error) {
	var body []byte
	var code int
	err := gout.POST(g.base + "/user/token/refresh/").
		SetTimeout(g.timeout).
		SetJSON(gout.H{"refresh": refreshToken}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "refresh request")
	}
	if code != http.StatusOK {
		return "", errors.Errorf("refresh rejected with status %d", code)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "decode refresh response")
	}
	if resp.Data.Access == "" {
		return "", errors.New("refresh response carried no access token")
	}

	pair := TokenPair{Access: resp.Data.Access, Refresh: refreshToken}
	if resp.Data.Refresh != "" {
		pair.Refresh = resp.Data.Refresh
	}
	g.mu.Lock()
	g.pair = pair
	g.mu.Unlock()
	if err := g.store.Save(pair); err != nil {
		zap.L().Warn("persisting refreshed session failed", zap.Error(err))
	}
	return pair.Access, nil
}

// expired inspects the unverified exp claim. Signature verification is
// the backend's job; the client only avoids sending tokens it already
// knows are dead. A token without a readable exp is treated as live
// and left for the backend to judge.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return time.Now().Add(expirySkew).After(time.Unix(int64(exp), 0))
}
