package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

func strPtr(s string) *string { return &s }

func createTestProject(t *testing.T, db *DB, ownerID, name string, public bool) *model.Project {
	t.Helper()
	p := &model.Project{
		Name:     name,
		Address:  "123 Main St",
		Status:   model.ProjectStatusPlanning,
		IsPublic: public,
		OwnerID:  ownerID,
	}
	require.NoError(t, db.CreateProject(context.Background(), p))
	return p
}

func TestCreateProject_RoundTripsNullableColumns(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "user_1")

	budget := 25000.5
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &model.Project{
		Name:        "Deck",
		Description: strPtr("Backyard deck"),
		Address:     "123 Main St",
		Budget:      &budget,
		StartDate:   &start,
		Status:      model.ProjectStatusPlanning,
		OwnerID:     owner.ID,
	}
	require.NoError(t, db.CreateProject(context.Background(), p))
	require.NotEmpty(t, p.ID)

	found, err := db.GetProject(context.Background(), p.ID)
	require.NoError(t, err)

	require.NotNil(t, found.Description)
	assert.Equal(t, "Backyard deck", *found.Description)
	require.NotNil(t, found.Budget)
	assert.InDelta(t, 25000.5, *found.Budget, 0.001)
	require.NotNil(t, found.StartDate)
	assert.True(t, found.StartDate.Equal(start))
	assert.Nil(t, found.EndDate)
	assert.Equal(t, model.ProjectStatusPlanning, found.Status)
	assert.Equal(t, owner.ID, found.OwnerID)
}

func TestCreateProject_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	p := &model.Project{Name: "Orphan", Address: "1 Nowhere", Status: model.ProjectStatusPlanning, OwnerID: "missing"}
	assert.Error(t, db.CreateProject(context.Background(), p), "owner_id must reference an existing user")
}

func TestGetProject_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetProject(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListProjectsByOwner_ScopedAndNewestFirst(t *testing.T) {
	db := newTestDB(t)
	u1 := createTestUser(t, db, "user_1")
	u2 := createTestUser(t, db, "user_2")

	first := createTestProject(t, db, u1.ID, "first", false)
	second := createTestProject(t, db, u1.ID, "second", false)
	createTestProject(t, db, u2.ID, "someone else's", true)

	projects, err := db.ListProjectsByOwner(context.Background(), u1.ID, repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, first.ID, projects[1].ID)
}

func TestListProjectsByOwner_Pagination(t *testing.T) {
	db := newTestDB(t)
	u1 := createTestUser(t, db, "user_1")
	for i := 0; i < 5; i++ {
		createTestProject(t, db, u1.ID, "p", false)
	}

	page, err := db.ListProjectsByOwner(context.Background(), u1.ID, repository.ListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestListPublicProjects_AnyOwner(t *testing.T) {
	db := newTestDB(t)
	u1 := createTestUser(t, db, "user_1")
	u2 := createTestUser(t, db, "user_2")

	createTestProject(t, db, u1.ID, "private", false)
	createTestProject(t, db, u1.ID, "public 1", true)
	createTestProject(t, db, u2.ID, "public 2", true)

	projects, err := db.ListPublicProjects(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	for _, p := range projects {
		assert.True(t, p.IsPublic)
	}
}

func TestUpdateProject(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "user_1")
	p := createTestProject(t, db, owner.ID, "Deck", false)

	p.Name = "Bigger deck"
	p.Description = nil
	p.Status = model.ProjectStatusInProgress
	require.NoError(t, db.UpdateProject(context.Background(), p))

	found, err := db.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bigger deck", found.Name)
	assert.Nil(t, found.Description)
	assert.Equal(t, model.ProjectStatusInProgress, found.Status)
}

func TestUpdateProject_WrongOwnerWritesNothing(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "user_1")
	other := createTestUser(t, db, "user_2")
	p := createTestProject(t, db, owner.ID, "Deck", false)

	hijack := *p
	hijack.Name = "hijacked"
	hijack.OwnerID = other.ID
	err := db.UpdateProject(context.Background(), &hijack)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	found, err := db.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deck", found.Name)
	assert.Equal(t, owner.ID, found.OwnerID)
}

func TestDeleteProject(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "user_1")
	other := createTestUser(t, db, "user_2")
	p := createTestProject(t, db, owner.ID, "Deck", false)

	assert.ErrorIs(t, db.DeleteProject(context.Background(), p.ID, other.ID), apperror.ErrNotFound)
	require.NoError(t, db.DeleteProject(context.Background(), p.ID, owner.ID))

	_, err := db.GetProject(context.Background(), p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, db.DeleteProject(context.Background(), p.ID, owner.ID), apperror.ErrNotFound)
}
