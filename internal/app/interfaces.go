package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"

	"github.com/bozorplus/bozoradmin/config"
	"github.com/bozorplus/bozoradmin/internal/auth"
	"github.com/bozorplus/bozoradmin/internal/export"
	"github.com/bozorplus/bozoradmin/internal/repository"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// SessionProvider provides the operator session gate
type SessionProvider interface {
	Gate() *auth.Gate
}

// BusProvider provides the application event bus
type BusProvider interface {
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application
// context. Services should depend on specific providers or this
// combined interface.
type AppContext interface {
	ConfigProvider
	SchedulerProvider
	SessionProvider
	BusProvider

	Exporter() *export.Service
	Orders() *repository.OrdersRepository
}
