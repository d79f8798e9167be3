package app

import (
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/barberdesk/barberdesk/config"
	"github.com/barberdesk/barberdesk/internal/cart"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/notify"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	configManager *ConfigManager
	rdb           *redis.Client
	cartStore     cart.Store
	boltCarts     *cart.BoltStore
	notifier      *notify.Notifier
}

// Ensure Application implements all interfaces
var (
	_ DBProvider            = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ CartStoreProvider     = (*Application)(nil)
	_ RedisProvider         = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
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

	// Initialize metrics with workdir convention
	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	// Ensure database schema is migrated before loading configs
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	// wait for database initialization to complete
	go func() {
		time.Sleep(3 * time.Second)
		a.checkSuper()
		a.checkSettings()
		a.checkSchedulers()
		a.checkServices()
		a.checkProducts()
	}()

	// Initialize the configuration manager
	a.configManager = NewConfigManager(a)

	a.initCartStore(cfg)
	a.initNotifier()
	a.initJob()
}

// initCartStore wires cart persistence, redis when an address is configured,
// a bbolt file under the workdir otherwise.
func (a *Application) initCartStore(cfg *config.AppConfig) {
	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Passwd,
			DB:       cfg.Redis.DB,
		})
		a.cartStore = cart.NewRedisStore(a.rdb)
		zap.L().Info("cart store initialized", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
		return
	}

	_ = os.MkdirAll(cfg.GetDataDir(), 0o755)
	bs, err := cart.NewBoltStore(filepath.Join(cfg.GetDataDir(), "carts.db"))
	if err != nil {
		zap.S().Panicf("failed to open cart database: %v", err)
	}
	a.boltCarts = bs
	a.cartStore = bs
	zap.L().Info("cart store initialized", zap.String("backend", "bbolt"))
}

func (a *Application) initNotifier() {
	n, err := notify.NewNotifier(a.gormDB, a)
	if err != nil {
		zap.S().Errorf("notifier init failed: %v", err)
		return
	}
	if err := n.Start(); err != nil {
		zap.S().Errorf("notifier subscribe failed: %v", err)
		return
	}
	a.notifier = n
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	a.migrateIndexes()
	return nil
}

// migrateIndexes creates the partial unique index backing the slot
// exclusivity rule: at most one scheduled appointment per instant. Only
// postgres supports the predicate, other dialects rely on the transactional
// check alone.
func (a *Application) migrateIndexes() {
	if a.appConfig.Database.Type != "postgres" {
		return
	}
	err := a.gormDB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_scheduled_slot
		 ON shop_appointment (start_at) WHERE status = 'scheduled'`,
	).Error
	if err != nil {
		zap.S().Errorf("failed to create scheduled slot index: %v", err)
	}
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
	a.migrateIndexes()
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// CartStore returns the cart persistence backend
func (a *Application) CartStore() cart.Store {
	return a.cartStore
}

// Redis returns the shared redis client, nil when redis is not configured
func (a *Application) Redis() *redis.Client {
	return a.rdb
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// SaveSettings saves configuration settings, keys are "category.name"
func (a *Application) SaveSettings(settings map[string]string) error {
	return a.configManager.Save(settings)
}

// Start scheduler job runner
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	a.StartSchedulerService(ctx)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}

	if a.notifier != nil {
		a.notifier.Stop()
	}

	if a.boltCarts != nil {
		_ = a.boltCarts.Close()
	}

	if a.rdb != nil {
		_ = a.rdb.Close()
	}

	_ = metrics.Close()
	_ = zap.L().Sync()
}

// RunSchedulerNow triggers a scheduler execution immediately by ID
func (a *Application) RunSchedulerNow(id int64) error {
	var sched domain.ShopScheduler
	if err := a.gormDB.First(&sched, id).Error; err != nil {
		return err
	}

	a.runSchedulerTask(&sched)

	now := time.Now()
	a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at": now,
		"next_run_at": now.Add(time.Duration(sched.Interval) * time.Second),
	})
	return nil
}
