package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/sakif/sitebook/internal/apperror"
)

// mapError translates driver and GORM errors into the apperror taxonomy.
// resource and id describe the row being touched; conflictField names the
// column a unique violation should be reported against.
func mapError(err error, resource, id, conflictField string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("postgres: %s %s: %w", resource, id, err)
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return apperror.Conflict(resource, conflictField)
	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("postgres: %s %s references a missing row (%s): %w",
			resource, id, pgErr.ConstraintName, err)
	case pgerrcode.QueryCanceled:
		return fmt.Errorf("postgres: query canceled: %w", err)
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("postgres: database connection error: %w", err)
	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, err)
	}
}
