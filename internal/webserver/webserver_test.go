package webserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozorplus/bozoradmin/config"
	"github.com/bozorplus/bozoradmin/internal/auth"
	"github.com/bozorplus/bozoradmin/internal/console"
	"github.com/bozorplus/bozoradmin/internal/export"
	"github.com/bozorplus/bozoradmin/internal/i18n"
	"github.com/bozorplus/bozoradmin/internal/repository"
	"github.com/bozorplus/bozoradmin/internal/restclient"
)

// fakeBackend imitates the commerce API the gateway proxies
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	access := testToken(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail": "No active account"}`)
			return
		}
		io.WriteString(w, `{"data": {"access": "`+access+`", "refresh": "r"}}`)
	})
	mux.HandleFunc("/product/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"results": [{"id": 1, "name_uz": "Olma", "name_ru": "Яблоко", "price": 10}],
			"page": 1, "total_pages": 1, "count": 1
		}`)
	})
	mux.HandleFunc("/unity/create/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": 9, "name_uz": "Kilogramm", "name_ru": "Килограмм"}`)
	})
	mux.HandleFunc("/order/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"results": [
				{"id": 1, "number": "ORD-001", "customer_name": "Aziz", "amount": 30,
				 "status": "pending",
				 "items": [{"product_name": "Olma", "quantity": 3, "price": 10}]}
			],
			"page": 1, "total_pages": 1, "count": 1
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func testServer(t *testing.T) *Server {
	s, _ := testServerWithBus(t)
	return s
}

func testServerWithBus(t *testing.T) (*Server, EventBus.Bus) {
	t.Helper()
	backend := fakeBackend(t)

	store, err := auth.OpenStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	gate := auth.NewGate(backend.URL, store)

	locale := i18n.NewLocale("uz")
	api := restclient.New(backend.URL, gate, restclient.WithLocale(locale.Code))

	exporter, err := export.NewService(t.TempDir(), 2)
	require.NoError(t, err)
	t.Cleanup(exporter.Release)

	cfg := config.DefaultConfig()
	cfg.Web.Secret = "test-secret"

	bus := EventBus.New()
	return NewServer(cfg, Deps{
		Gate:       gate,
		Locale:     locale,
		Bus:        bus,
		Products:   repository.Products(api),
		Categories: repository.Categories(api),
		Units:      repository.Units(api),
		Banners:    repository.Banners(api),
		Users:      repository.Users(api),
		Orders:     repository.Orders(api),
		Export:     exporter,
	}), bus
}

func loginCookies(t *testing.T, s *Server) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username": "admin", "password": "secret"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

const echoHeaderContentType = "Content-Type"

func TestLoginThenListProducts(t *testing.T) {
	s := testServer(t)
	cookies := loginCookies(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/product?page=1", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data       []map[string]interface{} `json:"data"`
		TotalPages int                      `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Olma", resp.Data[0]["name_uz"])
}

func TestResourcesRequireLogin(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/product", nil)
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectedLoginDoesNotSetSession(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username": "admin", "password": "wrong"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateThroughGatewayPublishesFormSaved(t *testing.T) {
	s, bus := testServerWithBus(t)
	cookies := loginCookies(t, s)

	saved := make(chan string, 1)
	require.NoError(t, bus.Subscribe(console.TopicFormSaved, func(resource string) {
		saved <- resource
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/unity",
		strings.NewReader(`{"name_uz": "Kilogramm", "name_ru": "Килограмм"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	select {
	case resource := <-saved:
		assert.Equal(t, "unity", resource)
	case <-time.After(time.Second):
		t.Fatal("gateway create did not publish a form-saved event")
	}
}

func TestDashboardStats(t *testing.T) {
	s := testServer(t)
	cookies := loginCookies(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			TotalOrders  int     `json:"total_orders"`
			TotalRevenue float64 `json:"total_revenue"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.TotalOrders)
	assert.Equal(t, 30.0, resp.Data.TotalRevenue)
}

func TestExportGroupedEndpoint(t *testing.T) {
	s := testServer(t)
	cookies := loginCookies(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/order/export",
		strings.NewReader(`{}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Files  []string `json:"files"`
			Orders int      `json:"orders"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Orders)
	require.Len(t, resp.Data.Files, 1)
	assert.True(t, strings.HasPrefix(resp.Data.Files[0], "Aziz_"))
}

func TestDownloadRejectsPathTraversal(t *testing.T) {
	s := testServer(t)
	cookies := loginCookies(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/order/export/download?file=../../etc/passwd", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpointIsPublic(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.root.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uptime_sec")
}
