package postgres

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.ProjectRepository = (*DB)(nil)

func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	// Omit the association so GORM never tries to upsert the owner row.
	if err := db.gorm.WithContext(ctx).Omit("Owner").Create(project).Error; err != nil {
		return mapError(err, "project", project.ID, "id")
	}
	return nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	if err := db.gorm.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, mapError(err, "project", id, "")
	}
	return &p, nil
}

func (db *DB) ListProjectsByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	q := db.gorm.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&projects).Error; err != nil {
		return nil, mapError(err, "project", "owner="+ownerID, "")
	}
	return projects, nil
}

func (db *DB) ListPublicProjects(ctx context.Context, opts repository.ListOptions) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	q := db.gorm.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").Order("id DESC")
	if err := paginate(q, opts).Find(&projects).Error; err != nil {
		return nil, mapError(err, "project", "public", "")
	}
	return projects, nil
}

// UpdateProject is UPDATE ... WHERE id = ? AND owner_id = ?.
//
// A map is used instead of the struct because GORM's struct Updates skips
// zero values, which would make it impossible to clear a nullable column or
// set is_public back to false.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()

	result := db.gorm.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ? AND owner_id = ?", project.ID, project.OwnerID).
		Updates(map[string]any{
			"name":        project.Name,
			"description": project.Description,
			"address":     project.Address,
			"budget":      project.Budget,
			"start_date":  project.StartDate,
			"end_date":    project.EndDate,
			"status":      string(project.Status),
			"is_public":   project.IsPublic,
			"updated_at":  project.UpdatedAt,
		})
	if result.Error != nil {
		return mapError(result.Error, "project", project.ID, "")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("project", project.ID)
	}
	return nil
}

func (db *DB) DeleteProject(ctx context.Context, id, ownerID string) error {
	result := db.gorm.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Project{})
	if result.Error != nil {
		return mapError(result.Error, "project", id, "")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("project", id)
	}
	return nil
}
