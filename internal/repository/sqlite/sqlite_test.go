package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/sitebook/internal/model"
)

// newTestDB returns a fresh in-memory database. t.Cleanup closes it when the
// test (and all of its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a shadow user so resource rows satisfy the owner_id
// foreign key.
func createTestUser(t *testing.T, db *DB, externalID string) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       "Test " + externalID,
	}
	if err := db.UpsertProfile(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
