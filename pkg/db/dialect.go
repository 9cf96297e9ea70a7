package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
)

// Dialect selects the gorm driver for the audit database. SQLite is
// the default so the gateway runs without external infrastructure.
func Dialect(cfg config.AuditDBConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "", "sqlite":
		name := cfg.Name
		if name == "" {
			name = "audit.db"
		}
		return sqlite.Open(name), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	default:
		return nil, fmt.Errorf("unsupported db type %q", cfg.Type)
	}
}
