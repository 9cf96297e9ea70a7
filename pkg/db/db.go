package db

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
	obslogger "github.com/ClemmensSES/SESSalesResources/internal/observability/logger"
)

// Module provides the shared *gorm.DB for the audit trail.
var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the audit database and installs the tracing and
// metrics plugins.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg.Audit)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	if err := gdb.Use(otelgorm.NewPlugin()); err != nil {
		log.Warn("otelgorm plugin not installed", zap.Error(err))
	}
	if err := gdb.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          cfg.Audit.Name,
		RefreshInterval: 15,
	})); err != nil {
		log.Warn("gorm prometheus plugin not installed", zap.Error(err))
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Audit.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.Audit.MaxIdleConn)
	}
	if cfg.Audit.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.Audit.MaxOpenConn)
	}
	if cfg.Audit.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Audit.ConnMaxLifetime) * time.Second)
	}
	if cfg.Audit.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Audit.ConnMaxIdleTime) * time.Second)
	}

	return gdb, nil
}
