package app

import (
	"fmt"
	"time"

	"github.com/barberdesk/barberdesk/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// getDatabase opens the gorm handle configured by the database section.
func getDatabase(cfg config.DBConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port)

	loglevel := logger.Silent
	if cfg.Debug {
		loglevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(loglevel),
	})
	if err != nil {
		zap.S().Panicf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Panicf("failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.IdleConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}
