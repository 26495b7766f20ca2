package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"

	"github.com/bozorplus/bozoradmin/config"
	"github.com/bozorplus/bozoradmin/internal/auth"
	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/export"
	"github.com/bozorplus/bozoradmin/internal/i18n"
	"github.com/bozorplus/bozoradmin/internal/repository"
)

const sessionName = "bozoradmin-session"

// Deps are the wired services the gateway exposes over HTTP
type Deps struct {
	Gate       *auth.Gate
	Locale     *i18n.Locale
	Bus        EventBus.Bus
	Products   *repository.Repository[domain.Product]
	Categories *repository.Repository[domain.Category]
	Units      *repository.Repository[domain.Unit]
	Banners    *repository.Repository[domain.Banner]
	Users      *repository.Repository[domain.User]
	Orders     *repository.OrdersRepository
	Export     *export.Service
}

// Server is the dashboard HTTP gateway in front of the commerce
// backend: resource CRUD, order workflow, exports and status.
type Server struct {
	cfg  *config.AppConfig
	deps Deps
	root *echo.Echo
}

// NewServer builds the gateway with its middleware and routes
func NewServer(cfg *config.AppConfig, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps, root: echo.New()}
	s.root.HideBanner = true
	s.root.Debug = cfg.Web.Debug

	secret := cfg.Web.Secret
	if secret == "" {
		secret = random.String(32)
		zap.L().Warn("web secret not configured, sessions reset on restart")
	}
	s.root.Use(session.Middleware(sessions.NewCookieStore([]byte(secret))))
	s.root.Use(middleware.Recover())
	s.root.Use(s.localeMiddleware)

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.root.Group("/api")
	api.POST("/login", s.login)
	api.POST("/logout", s.logout)
	api.GET("/session", s.sessionInfo)
	api.GET("/status", s.status)

	secured := api.Group("", s.requireAuth)
	registerResource(secured, s.deps.Products, s.cfg.Api.PageSize, s.deps.Bus)
	registerResource(secured, s.deps.Categories, s.cfg.Api.PageSize, s.deps.Bus)
	registerResource(secured, s.deps.Units, s.cfg.Api.PageSize, s.deps.Bus)
	registerResource(secured, s.deps.Banners, s.cfg.Api.PageSize, s.deps.Bus)
	registerResource(secured, s.deps.Users, s.cfg.Api.PageSize, s.deps.Bus)
	registerResource(secured, s.deps.Orders.Repository, s.cfg.Api.PageSize, s.deps.Bus)

	secured.PATCH("/order/:id/status", s.updateOrderStatus)
	secured.POST("/order/export", s.exportGrouped)
	secured.POST("/order/export/selection", s.exportSelection)
	secured.POST("/order/export/csv", s.exportCSV)
	secured.GET("/order/export/download", s.downloadExport)
	secured.GET("/dashboard/stats", s.dashboardStats)
}

// localeMiddleware resolves the request language and switches the
// active dashboard locale, which also drives the Accept-Language
// header on outbound backend calls.
func (s *Server) localeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if al := c.Request().Header.Get("Accept-Language"); al != "" {
			s.deps.Locale.Set(i18n.Match(al))
		}
		return next(c)
	}
}

// requireAuth rejects requests without a logged-in session. The
// session cookie only marks the browser; the bearer credential lives
// in the token store behind the gate.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(sessionName, c)
		if err != nil || sess.Values["authenticated"] != true {
			return fail(c, http.StatusUnauthorized, "AUTH_ERROR", "login required", nil)
		}
		if !s.deps.Gate.LoggedIn() {
			return fail(c, http.StatusUnauthorized, "AUTH_ERROR", "session expired", nil)
		}
		return next(c)
	}
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse credentials", nil)
	}
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required", nil)
	}
	if err := s.deps.Gate.Login(c.Request().Context(), payload.Username, payload.Password); err != nil {
		return failFrom(c, err)
	}

	sess, _ := session.Get(sessionName, c)
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
	}
	sess.Values["authenticated"] = true
	sess.Values["username"] = payload.Username
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Warn("saving session cookie failed", zap.Error(err))
	}
	return ok(c, map[string]interface{}{"username": payload.Username})
}

func (s *Server) logout(c echo.Context) error {
	if err := s.deps.Gate.Logout(); err != nil {
		zap.L().Warn("clearing token store failed", zap.Error(err))
	}
	sess, _ := session.Get(sessionName, c)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1}
	sess.Values = map[interface{}]interface{}{}
	_ = sess.Save(c.Request(), c.Response())
	return ok(c, map[string]interface{}{"logged_out": true})
}

func (s *Server) sessionInfo(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	authenticated := err == nil && sess.Values["authenticated"] == true && s.deps.Gate.LoggedIn()
	info := map[string]interface{}{
		"authenticated": authenticated,
		"locale":        s.deps.Locale.Code(),
	}
	if authenticated {
		info["username"] = sess.Values["username"]
	}
	return ok(c, info)
}

// Start serves until the context is cancelled, then drains
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("gateway listening", zap.String("addr", s.cfg.Web.Listen))
		errCh <- s.root.Start(s.cfg.Web.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.root.Shutdown(shutdownCtx)
	}
}
