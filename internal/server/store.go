package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/sitebook/internal/config"
	"github.com/sakif/sitebook/internal/repository"
	"github.com/sakif/sitebook/internal/repository/postgres"
	"github.com/sakif/sitebook/internal/repository/sqlite"
)

// OpenStore opens the backend named by cfg.DatabaseDriver.
//
// TYPED NIL:
// Each branch checks err before returning the concrete *DB. Returning a nil
// *sqlite.DB as repository.Store would give callers a non-nil interface.
func OpenStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		if cfg.DatabaseURL != ":memory:" {
			// 0755 = owner can read/write/execute, others can read/execute.
			dir := filepath.Dir(cfg.DatabaseURL)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		logger.Info("using sqlite store", slog.String("path", cfg.DatabaseURL))
		db, err := sqlite.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverPostgres:
		logger.Info("using postgres store")
		db, err := postgres.New(postgres.Config{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			Debug:           cfg.LogLevel == "debug",
		})
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
