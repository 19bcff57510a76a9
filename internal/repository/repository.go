// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in the sqlite and postgres sub-packages.
//
// Contract shared by every implementation:
//   - a missing row is reported as apperror.NotFound
//   - a unique-constraint violation is reported as apperror.Conflict
//   - Update and Delete are conditional on BOTH id and owner id, so the
//     ownership check and the write happen in one statement
package repository

import (
	"context"

	"github.com/sakif/sitebook/internal/model"
)

// ListOptions pages a list query. A zero Limit returns every matching row.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// UpsertProfile inserts the user or refreshes Email/Name of the existing
	// row with the same ExternalID. user is filled with the stored row.
	UpsertProfile(ctx context.Context, user *model.User) error
	// InsertIfAbsent inserts the user only when no row has its ExternalID and
	// never touches an existing row. user is filled with the stored row.
	InsertIfAbsent(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Project, error)
	ListPublicProjects(ctx context.Context, opts ListOptions) ([]model.Project, error)
	// UpdateProject writes every mutable column of project where id and
	// owner_id both match. Zero matched rows yields apperror.NotFound.
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id, ownerID string) error
}

type ContractorRepository interface {
	CreateContractor(ctx context.Context, contractor *model.Contractor) error
	GetContractor(ctx context.Context, id string) (*model.Contractor, error)
	ListContractorsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Contractor, error)
	UpdateContractor(ctx context.Context, contractor *model.Contractor) error
	DeleteContractor(ctx context.Context, id, ownerID string) error
}

// Store bundles the three repositories one backend provides.
type Store interface {
	UserRepository
	ProjectRepository
	ContractorRepository
	Ping(ctx context.Context) error
	Close() error
}
