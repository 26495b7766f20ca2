package app

import (
	"context"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bozorplus/bozoradmin/config"
	"github.com/bozorplus/bozoradmin/internal/auth"
	"github.com/bozorplus/bozoradmin/internal/console"
	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/export"
	"github.com/bozorplus/bozoradmin/internal/i18n"
	"github.com/bozorplus/bozoradmin/internal/repository"
	"github.com/bozorplus/bozoradmin/internal/restclient"
	"github.com/bozorplus/bozoradmin/internal/webserver"
	"github.com/bozorplus/bozoradmin/pkg/metrics"
)

type Application struct {
	appConfig *config.AppConfig
	sched     *cron.Cron
	bus       EventBus.Bus

	tokenStore *auth.Store
	gate       *auth.Gate
	locale     *i18n.Locale
	api        *restclient.Client

	products   *repository.Repository[domain.Product]
	categories *repository.Repository[domain.Category]
	units      *repository.Repository[domain.Unit]
	banners    *repository.Repository[domain.Banner]
	users      *repository.Repository[domain.User]
	orders     *repository.OrdersRepository

	exporter *export.Service
	web      *webserver.Server
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ SessionProvider   = (*Application)(nil)
	_ BusProvider       = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Gate returns the session gate
func (a *Application) Gate() *auth.Gate {
	return a.gate
}

// Bus returns the application event bus
func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// Exporter returns the spreadsheet export service
func (a *Application) Exporter() *export.Service {
	return a.exporter
}

// Orders returns the order repository
func (a *Application) Orders() *repository.OrdersRepository {
	return a.orders
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.Logger.FileEnable {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.Logger.Filename)
	}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	if err := os.MkdirAll(cfg.System.Workdir, 0o755); err != nil {
		zap.S().Errorf("workdir init failed: %v", err)
	}

	// Initialize metrics with workdir convention
	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	a.tokenStore, err = auth.OpenStore(filepath.Join(cfg.System.Workdir, "session.db"))
	if err != nil {
		zap.S().Fatalf("token store init failed: %v", err)
	}
	a.gate = auth.NewGate(cfg.Api.BaseURL, a.tokenStore)
	a.locale = i18n.NewLocale(cfg.Api.Locale)

	a.api = restclient.New(cfg.Api.BaseURL, a.gate,
		restclient.WithLocale(a.locale.Code),
		restclient.WithTimeout(cfg.Api.Timeout),
	)

	a.products = repository.Products(a.api)
	a.categories = repository.Categories(a.api)
	a.units = repository.Units(a.api)
	a.banners = repository.Banners(a.api)
	a.users = repository.Users(a.api)
	a.orders = repository.Orders(a.api)

	a.exporter, err = export.NewService(cfg.Export.Dir, cfg.Export.Workers,
		export.WithLocale(a.locale.Code),
	)
	if err != nil {
		zap.S().Fatalf("export service init failed: %v", err)
	}

	a.bus = EventBus.New()
	a.initBusLog()

	a.web = webserver.NewServer(cfg, webserver.Deps{
		Gate:       a.gate,
		Locale:     a.locale,
		Bus:        a.bus,
		Products:   a.products,
		Categories: a.categories,
		Units:      a.units,
		Banners:    a.banners,
		Users:      a.users,
		Orders:     a.orders,
		Export:     a.exporter,
	})

	a.initJob()
}

// initBusLog records every mutation flowing through the bus; the same
// events drive list refreshes in bus-bound consumers.
func (a *Application) initBusLog() {
	err := a.bus.SubscribeAsync(console.TopicFormSaved, func(resource string) {
		zap.L().Info("record saved", zap.String("resource", resource))
	}, false)
	if err != nil {
		zap.S().Errorf("bus subscribe error %s", err.Error())
	}
	err = a.bus.SubscribeAsync(console.TopicDeleted, func(resource string) {
		zap.L().Info("record deleted", zap.String("resource", resource))
	}, false)
	if err != nil {
		zap.S().Errorf("bus subscribe error %s", err.Error())
	}
}

// Start runs the scheduler and serves the gateway until ctx ends
func (a *Application) Start(ctx context.Context) error {
	a.sched.Start()
	return a.web.Start(ctx)
}

// Release tears down background services in reverse start order
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.exporter != nil {
		a.exporter.Release()
	}
	if a.tokenStore != nil {
		_ = a.tokenStore.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
