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

var _ repository.ProjectRepository = (*DB)(nil)

const projectColumns = `id, name, description, address, budget, start_date, end_date,
	status, is_public, owner_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateProject inserts a new project. ID and timestamps are assigned here
// and written back into project.
//
// NULLABLE COLUMNS:
// Description, Budget, StartDate and EndDate are pointers. database/sql
// converts a nil pointer argument to NULL and dereferences a non-nil one, so
// they can be passed straight through.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.Description,
		project.Address,
		project.Budget,
		project.StartDate,
		project.EndDate,
		string(project.Status),
		project.IsPublic,
		project.OwnerID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	return nil
}

// GetProject fetches a project by primary key regardless of owner. The
// service layer decides whether the caller may see it.
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// ListProjectsByOwner returns the owner's projects, newest first.
// xid ids sort by creation time, so id DESC breaks created_at ties.
func (db *DB) ListProjectsByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Project, error) {
	limit, args := limitClause(opts)
	return db.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`+limit,
		append([]any{ownerID}, args...)...,
	)
}

// ListPublicProjects returns every project flagged public, newest first.
func (db *DB) ListPublicProjects(ctx context.Context, opts repository.ListOptions) ([]model.Project, error) {
	limit, args := limitClause(opts)
	return db.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE is_public = 1
		 ORDER BY created_at DESC, id DESC`+limit,
		args...,
	)
}

func (db *DB) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}

// UpdateProject writes all mutable columns.
//
// CONDITIONAL UPDATE:
// The WHERE clause matches on id AND owner_id, so the authorization check and
// the write are one atomic statement. If the row was deleted (or never
// belonged to this owner) between the service's ownership read and this
// call, nothing is written and we report NotFound.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, description = ?, address = ?, budget = ?, start_date = ?,
		     end_date = ?, status = ?, is_public = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		project.Name,
		project.Description,
		project.Address,
		project.Budget,
		project.StartDate,
		project.EndDate,
		string(project.Status),
		project.IsPublic,
		project.UpdatedAt,
		project.ID,
		project.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	return expectOneRow(result, "project", project.ID)
}

// DeleteProject removes the project only if ownerID owns it.
func (db *DB) DeleteProject(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	return expectOneRow(result, "project", id)
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p      model.Project
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Address,
		&p.Budget,
		&p.StartDate,
		&p.EndDate,
		&status,
		&p.IsPublic,
		&p.OwnerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	return &p, nil
}

// expectOneRow turns "zero rows affected" into apperror.NotFound.
func expectOneRow(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
