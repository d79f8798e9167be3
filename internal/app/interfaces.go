package app

import (
	"github.com/barberdesk/barberdesk/config"
	"github.com/barberdesk/barberdesk/internal/cart"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]string) error
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// CartStoreProvider provides the cart persistence backend, redis when
// configured and the bbolt file store otherwise
type CartStoreProvider interface {
	CartStore() cart.Store
}

// RedisProvider provides the shared redis client, nil when redis is not
// configured
type RedisProvider interface {
	Redis() *redis.Client
}

// AppContext combines all provider interfaces for full application context.
// Services should depend on specific providers or this combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider
	CartStoreProvider
	RedisProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// RunSchedulerNow triggers a scheduler execution immediately by ID
	RunSchedulerNow(id int64) error
}
