package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, external_id, email, name, created_at, updated_at`

// UpsertProfile inserts the user or refreshes the cached profile of the row
// with the same external_id.
//
// ON CONFLICT, NOT SELECT-THEN-INSERT:
// Two requests for a brand-new subject can arrive at the same time. A
// "SELECT, and INSERT if missing" sequence lets both see no row and both
// insert, and the second one fails on the UNIQUE index. ON CONFLICT makes the
// insert-or-update a single statement, so concurrent callers converge on one
// row. The id generated here is discarded when the row already exists; we
// read the stored row back to return the canonical id.
func (db *DB) UpsertProfile(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
			email      = excluded.email,
			name       = excluded.name,
			updated_at = excluded.updated_at`,
		xid.New().String(),
		user.ExternalID,
		user.Email,
		user.Name,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (externalID=%s): %w", user.ExternalID, err)
	}

	return db.reloadUser(ctx, user)
}

// InsertIfAbsent creates the row only if the external_id is unknown. An
// existing row, including its cached profile, is left exactly as it was.
func (db *DB) InsertIfAbsent(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		xid.New().String(),
		user.ExternalID,
		user.Email,
		user.Name,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (externalID=%s): %w", user.ExternalID, err)
	}

	return db.reloadUser(ctx, user)
}

// reloadUser overwrites user with the stored row for user.ExternalID.
func (db *DB) reloadUser(ctx context.Context, user *model.User) error {
	stored, err := db.GetUserByExternalID(ctx, user.ExternalID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByExternalID retrieves a user by identity-provider subject id.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", externalID)
		}
		return nil, fmt.Errorf("sqlite: getting user by external id %s: %w", externalID, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.Name,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
