package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/auth"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

// =========================================================================
// MOCK STORE
// =========================================================================
//
// mockStore is an in-memory implementation of the three repository
// interfaces. It follows the same contract as the real stores: NotFound for
// missing rows, Conflict for a duplicate contractor email, and conditional
// update/delete on id AND owner.
//
// failWith, when set, is returned by every method. That simulates the
// database being down.

type mockStore struct {
	mu          sync.Mutex
	users       map[string]*model.User // keyed by external id
	projects    map[string]*model.Project
	contractors map[string]*model.Contractor
	nextID      int
	failWith    error

	// vanish deletes the row between the service's ownership read and its
	// write, to exercise the conditional statements.
	vanish bool
}

var (
	_ repository.UserRepository       = (*mockStore)(nil)
	_ repository.ProjectRepository    = (*mockStore)(nil)
	_ repository.ContractorRepository = (*mockStore)(nil)
)

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*model.User),
		projects:    make(map[string]*model.Project),
		contractors: make(map[string]*model.Contractor),
	}
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) UpsertProfile(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if existing, ok := m.users[user.ExternalID]; ok {
		existing.Email = user.Email
		existing.Name = user.Name
		*user = *existing
		return nil
	}
	user.ID = m.id("user")
	stored := *user
	m.users[user.ExternalID] = &stored
	return nil
}

func (m *mockStore) InsertIfAbsent(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if existing, ok := m.users[user.ExternalID]; ok {
		*user = *existing
		return nil
	}
	user.ID = m.id("user")
	stored := *user
	m.users[user.ExternalID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (m *mockStore) GetUserByExternalID(_ context.Context, externalID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[externalID]
	if !ok {
		return nil, apperror.NotFound("user", externalID)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) CreateProject(_ context.Context, project *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	project.ID = m.id("project")
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	result := *p
	if m.vanish {
		delete(m.projects, id)
	}
	return &result, nil
}

func (m *mockStore) ListProjectsByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Project, error) {
	return m.listProjects(func(p *model.Project) bool { return p.OwnerID == ownerID }, opts)
}

func (m *mockStore) ListPublicProjects(_ context.Context, opts repository.ListOptions) ([]model.Project, error) {
	return m.listProjects(func(p *model.Project) bool { return p.IsPublic }, opts)
}

func (m *mockStore) listProjects(keep func(*model.Project) bool, opts repository.ListOptions) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]model.Project, 0)
	for _, p := range m.projects {
		if keep(p) {
			result = append(result, *p)
		}
	}
	// ids are "project-N"; higher N is newer
	sort.Slice(result, func(i, j int) bool { return idNum(result[i].ID) > idNum(result[j].ID) })
	return paginate(result, opts), nil
}

func (m *mockStore) UpdateProject(_ context.Context, project *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.projects[project.ID]
	if !ok || existing.OwnerID != project.OwnerID {
		return apperror.NotFound("project", project.ID)
	}
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockStore) DeleteProject(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.projects[id]
	if !ok || existing.OwnerID != ownerID {
		return apperror.NotFound("project", id)
	}
	delete(m.projects, id)
	return nil
}

func (m *mockStore) CreateContractor(_ context.Context, contractor *model.Contractor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, c := range m.contractors {
		if c.Email == contractor.Email {
			return apperror.Conflict("contractor", "email")
		}
	}
	contractor.ID = m.id("contractor")
	stored := *contractor
	m.contractors[contractor.ID] = &stored
	return nil
}

func (m *mockStore) GetContractor(_ context.Context, id string) (*model.Contractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.contractors[id]
	if !ok {
		return nil, apperror.NotFound("contractor", id)
	}
	result := *c
	if m.vanish {
		delete(m.contractors, id)
	}
	return &result, nil
}

func (m *mockStore) ListContractorsByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Contractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]model.Contractor, 0)
	for _, c := range m.contractors {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, opts), nil
}

func (m *mockStore) UpdateContractor(_ context.Context, contractor *model.Contractor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.contractors[contractor.ID]
	if !ok || existing.OwnerID != contractor.OwnerID {
		return apperror.NotFound("contractor", contractor.ID)
	}
	for id, c := range m.contractors {
		if id != contractor.ID && c.Email == contractor.Email {
			return apperror.Conflict("contractor", "email")
		}
	}
	stored := *contractor
	m.contractors[contractor.ID] = &stored
	return nil
}

func (m *mockStore) DeleteContractor(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.contractors[id]
	if !ok || existing.OwnerID != ownerID {
		return apperror.NotFound("contractor", id)
	}
	delete(m.contractors, id)
	return nil
}

func paginate[T any](rows []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(rows) {
		return []T{}
	}
	rows = rows[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

func idNum(id string) int {
	var n int
	_, _ = fmt.Sscanf(id, "project-%d", &n)
	return n
}

// =========================================================================
// MOCK PROFILE FETCHER
// =========================================================================

type mockProfiles struct {
	mu       sync.Mutex
	profiles map[string]*auth.Profile
	err      error
	calls    int
}

func (m *mockProfiles) GetUser(_ context.Context, subjectID string) (*auth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[subjectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", auth.ErrProfileNotFound, subjectID)
	}
	return p, nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func newTestProjectService(t *testing.T) (*ProjectService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewProjectService(store, testLogger()), store
}

func newTestContractorService(t *testing.T) (*ContractorService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewContractorService(store, testLogger()), store
}
