// Package datastore resolves the storage-backend selection into a ready
// *gorm.DB handle. The choice of engine is configuration resolved once at
// process start; everything above this package works against the handle and
// never sees which engine is behind it.
package datastore

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported engine names.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

// DefaultDSN is the local file used when nothing is configured.
const DefaultDSN = "testtrack.db"

// Config selects the storage engine and how to reach it.
type Config struct {
	// Type is one of sqlite, postgres or mysql. When empty the engine is
	// inferred from the DSN scheme, falling back to sqlite.
	Type string
	// DSN is the engine-specific connection string. Empty means the
	// default local SQLite file.
	DSN string
}

// normalize fills the blanks: engine inferred from the DSN scheme when
// unset, local SQLite file when no DSN is given.
func (c Config) normalize() Config {
	if c.DSN == "" {
		c.DSN = DefaultDSN
	}
	if c.Type == "" {
		switch {
		case strings.HasPrefix(c.DSN, "postgres://"), strings.HasPrefix(c.DSN, "postgresql://"):
			c.Type = TypePostgres
		case strings.HasPrefix(c.DSN, "mysql://"):
			c.Type = TypeMySQL
		default:
			c.Type = TypeSQLite
		}
	}
	return c
}

// Open connects to the configured engine. Every handle is opened with
// TranslateError so unique and foreign-key violations surface as the same
// gorm sentinels on all three engines.
func Open(cfg Config) (*gorm.DB, error) {
	cfg = cfg.normalize()

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := openGorm(dialector)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Type, err)
	}
	return db, nil
}

func openGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Type {
	case TypeSQLite:
		return sqlite.Open(sqliteDSN(cfg.DSN)), nil
	case TypePostgres:
		return postgres.Open(cfg.DSN), nil
	case TypeMySQL:
		return mysql.Open(strings.TrimPrefix(cfg.DSN, "mysql://")), nil
	default:
		return nil, fmt.Errorf("unknown database type %q (expected %s, %s or %s)",
			cfg.Type, TypeSQLite, TypePostgres, TypeMySQL)
	}
}

// sqliteDSN appends the foreign-keys pragma so SQLite enforces the same
// referential constraints the server engines do.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
