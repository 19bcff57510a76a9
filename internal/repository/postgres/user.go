package postgres

import (
	"context"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm/clause"

	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// UpsertProfile is INSERT ... ON CONFLICT (external_id) DO UPDATE, so
// concurrent first requests for one subject converge on a single row.
func (db *DB) UpsertProfile(ctx context.Context, user *model.User) error {
	row := newUserRow(user)

	err := db.gorm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return mapError(err, "user", user.ExternalID, "external_id")
	}

	return db.reloadUser(ctx, user)
}

// InsertIfAbsent is INSERT ... ON CONFLICT (external_id) DO NOTHING.
func (db *DB) InsertIfAbsent(ctx context.Context, user *model.User) error {
	row := newUserRow(user)

	err := db.gorm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return mapError(err, "user", user.ExternalID, "external_id")
	}

	return db.reloadUser(ctx, user)
}

func (db *DB) reloadUser(ctx context.Context, user *model.User) error {
	stored, err := db.GetUserByExternalID(ctx, user.ExternalID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := db.gorm.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapError(err, "user", id, "")
	}
	return &u, nil
}

func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User
	if err := db.gorm.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		return nil, mapError(err, "user", externalID, "")
	}
	return &u, nil
}

// newUserRow builds the row to insert. The caller's struct is not used
// directly because GORM would write the throwaway id back into it.
func newUserRow(user *model.User) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:         xid.New().String(),
		ExternalID: user.ExternalID,
		Email:      user.Email,
		Name:       user.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
