// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, not concrete stores, so tests inject
// in-memory fakes and main.go chooses SQLite or Postgres.
//
// OWNERSHIP:
// Every project and contractor belongs to one local user. Services receive
// the caller's local user id (resolved by IdentityService) and enforce:
//   - a missing row is NotFound (404)
//   - a row owned by someone else is AccessDenied (403)
//
// Writes repeat the owner in their WHERE clause, so a row deleted between the
// ownership read and the write is reported as NotFound rather than silently
// recreated or leaked.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

// CreateProjectInput is the payload for a new project. Status is not
// accepted; new projects always start in planning.
type CreateProjectInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Address     string   `json:"address"`
	Budget      *float64 `json:"budget"`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	IsPublic    bool     `json:"isPublic"`
}

// UpdateProjectInput is a partial update. Nil pointers and unset Nullables
// leave the stored value alone. Required fields (name, address) cannot be
// cleared.
type UpdateProjectInput struct {
	Name        *string           `json:"name"`
	Description Nullable[string]  `json:"description"`
	Address     *string           `json:"address"`
	Budget      Nullable[float64] `json:"budget"`
	StartDate   Nullable[string]  `json:"startDate"`
	EndDate     Nullable[string]  `json:"endDate"`
	Status      *string           `json:"status"`
	IsPublic    *bool             `json:"isPublic"`
}

// ProjectService handles business logic for projects.
type ProjectService struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

func NewProjectService(repo repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates in and saves a project owned by ownerID.
func (s *ProjectService) Create(ctx context.Context, ownerID string, in CreateProjectInput) (*model.Project, error) {
	name, err := requiredText("name", in.Name, MaxNameLength)
	if err != nil {
		return nil, err
	}
	address, err := requiredText("address", in.Address, MaxAddressLength)
	if err != nil {
		return nil, err
	}
	description, err := optionalText("description", in.Description, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}
	if err := validateBudget(in.Budget); err != nil {
		return nil, err
	}
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:        name,
		Description: description,
		Address:     address,
		Budget:      in.Budget,
		StartDate:   start,
		EndDate:     end,
		Status:      model.ProjectStatusPlanning,
		IsPublic:    in.IsPublic,
		OwnerID:     ownerID,
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("owner_id", ownerID),
	)
	return project, nil
}

// Get returns the project if ownerID owns it.
func (s *ProjectService) Get(ctx context.Context, ownerID, id string) (*model.Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	if project.OwnerID != ownerID {
		return nil, apperror.AccessDenied("project", id)
	}
	return project, nil
}

// List returns ownerID's projects, newest first.
func (s *ProjectService) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Project, error) {
	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	projects, err := s.repo.ListProjectsByOwner(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// ListPublic returns every public project in its reduced form. No caller
// identity is needed.
func (s *ProjectService) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.PublicProject, error) {
	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	projects, err := s.repo.ListPublicProjects(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing public projects: %w", err)
	}

	public := make([]model.PublicProject, 0, len(projects))
	for i := range projects {
		public = append(public, projects[i].Public())
	}
	return public, nil
}

// Update applies the fields present in in to a project ownerID owns.
func (s *ProjectService) Update(ctx context.Context, ownerID, id string, in UpdateProjectInput) (*model.Project, error) {
	project, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if project.Name, err = requiredText("name", *in.Name, MaxNameLength); err != nil {
			return nil, err
		}
	}
	if in.Address != nil {
		if project.Address, err = requiredText("address", *in.Address, MaxAddressLength); err != nil {
			return nil, err
		}
	}
	if in.Description.Set {
		if project.Description, err = optionalText("description", in.Description.Value, MaxDescriptionLength); err != nil {
			return nil, err
		}
	}
	if in.Budget.Set {
		if err := validateBudget(in.Budget.Value); err != nil {
			return nil, err
		}
		project.Budget = in.Budget.Value
	}
	if in.StartDate.Set {
		if project.StartDate, err = parseDate("startDate", in.StartDate.Value); err != nil {
			return nil, err
		}
	}
	if in.EndDate.Set {
		if project.EndDate, err = parseDate("endDate", in.EndDate.Value); err != nil {
			return nil, err
		}
	}
	if err := validateDateRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if in.Status != nil {
		status := model.ProjectStatus(*in.Status)
		if !status.Valid() {
			return nil, apperror.ValidationFailed("status",
				fmt.Sprintf("status must be one of %v", model.ProjectStatuses))
		}
		project.Status = status
	}
	if in.IsPublic != nil {
		project.IsPublic = *in.IsPublic
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated", slog.String("id", id))
	return project, nil
}

// Delete removes a project ownerID owns.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProject(ctx, id, ownerID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	s.logger.Info("project deleted", slog.String("id", id))
	return nil
}
