package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.ContractorRepository = (*DB)(nil)

const contractorColumns = `id, name, email, phone, company, trades, rating, owner_id, created_at, updated_at`

// CreateContractor inserts a new contractor.
// A duplicate email (from ANY owner) returns apperror.Conflict.
//
// Trades are stored as a JSON array in a TEXT column; SQLite has no array type.
func (db *DB) CreateContractor(ctx context.Context, contractor *model.Contractor) error {
	trades, err := encodeTrades(contractor.Trades)
	if err != nil {
		return err
	}

	contractor.ID = xid.New().String()
	now := time.Now().UTC()
	contractor.CreatedAt = now
	contractor.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO contractors (`+contractorColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contractor.ID,
		contractor.Name,
		contractor.Email,
		contractor.Phone,
		contractor.Company,
		trades,
		contractor.Rating,
		contractor.OwnerID,
		contractor.CreatedAt,
		contractor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("contractor", "email")
		}
		return fmt.Errorf("sqlite: creating contractor: %w", err)
	}

	return nil
}

func (db *DB) GetContractor(ctx context.Context, id string) (*model.Contractor, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contractorColumns+` FROM contractors WHERE id = ?`, id)

	c, err := scanContractor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("contractor", id)
		}
		return nil, fmt.Errorf("sqlite: getting contractor %s: %w", id, err)
	}
	return c, nil
}

// ListContractorsByOwner returns the owner's contractors ordered by name.
func (db *DB) ListContractorsByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Contractor, error) {
	limit, args := limitClause(opts)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+contractorColumns+` FROM contractors
		 WHERE owner_id = ?
		 ORDER BY name ASC, id ASC`+limit,
		append([]any{ownerID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contractors: %w", err)
	}
	defer rows.Close()

	contractors := make([]model.Contractor, 0)
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning contractor row: %w", err)
		}
		contractors = append(contractors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contractors: %w", err)
	}

	return contractors, nil
}

// UpdateContractor writes all mutable columns where id and owner_id match.
// See UpdateProject for the conditional-update rationale.
func (db *DB) UpdateContractor(ctx context.Context, contractor *model.Contractor) error {
	trades, err := encodeTrades(contractor.Trades)
	if err != nil {
		return err
	}
	contractor.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE contractors
		 SET name = ?, email = ?, phone = ?, company = ?, trades = ?, rating = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		contractor.Name,
		contractor.Email,
		contractor.Phone,
		contractor.Company,
		trades,
		contractor.Rating,
		contractor.UpdatedAt,
		contractor.ID,
		contractor.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("contractor", "email")
		}
		return fmt.Errorf("sqlite: updating contractor %s: %w", contractor.ID, err)
	}

	return expectOneRow(result, "contractor", contractor.ID)
}

func (db *DB) DeleteContractor(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM contractors WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting contractor %s: %w", id, err)
	}

	return expectOneRow(result, "contractor", id)
}

func scanContractor(row rowScanner) (*model.Contractor, error) {
	var (
		c      model.Contractor
		trades string
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Company,
		&trades,
		&c.Rating,
		&c.OwnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(trades), &c.Trades); err != nil {
		return nil, fmt.Errorf("decoding trades for contractor %s: %w", c.ID, err)
	}
	if c.Trades == nil {
		c.Trades = []string{}
	}
	return &c, nil
}

func encodeTrades(trades []string) (string, error) {
	if trades == nil {
		trades = []string{}
	}
	b, err := json.Marshal(trades)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding trades: %w", err)
	}
	return string(b), nil
}
