// Package postgres implements the repository interfaces with GORM on top of
// the pgx-backed gorm.io/driver/postgres dialector.
//
// The SQLite package is the zero-setup store for development and unit tests;
// this one is what a deployed instance points DATABASE_URL at. Both satisfy
// repository.Store, so the server picks one at start-up and nothing above the
// repository layer knows which.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// Config holds connection and pool settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Debug logs every SQL statement GORM issues.
	Debug bool
}

// DB wraps a *gorm.DB. It is created once in the composition root and passed
// down explicitly; there is no package-level handle.
type DB struct {
	gorm *gorm.DB
}

// New connects, configures the pool, and auto-migrates the schema.
func New(cfg Config) (*DB, error) {
	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN,
		// Disables implicit prepared statements so the store works behind
		// transaction-mode poolers such as PgBouncer.
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: getting sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	db := &DB{gorm: gdb}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	if err := db.gorm.AutoMigrate(&model.User{}, &model.Project{}, &model.Contractor{}); err != nil {
		return fmt.Errorf("postgres: running migrations: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// paginate applies ListOptions to a query. A zero Limit leaves it unbounded.
func paginate(q *gorm.DB, opts repository.ListOptions) *gorm.DB {
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q
}
