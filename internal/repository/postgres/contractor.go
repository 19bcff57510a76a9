package postgres

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

var _ repository.ContractorRepository = (*DB)(nil)

func (db *DB) CreateContractor(ctx context.Context, contractor *model.Contractor) error {
	if contractor.Trades == nil {
		contractor.Trades = []string{}
	}
	contractor.ID = xid.New().String()
	now := time.Now().UTC()
	contractor.CreatedAt = now
	contractor.UpdatedAt = now

	if err := db.gorm.WithContext(ctx).Omit("Owner").Create(contractor).Error; err != nil {
		return mapError(err, "contractor", contractor.ID, "email")
	}
	return nil
}

func (db *DB) GetContractor(ctx context.Context, id string) (*model.Contractor, error) {
	var c model.Contractor
	if err := db.gorm.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, mapError(err, "contractor", id, "")
	}
	return &c, nil
}

func (db *DB) ListContractorsByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Contractor, error) {
	contractors := make([]model.Contractor, 0)
	q := db.gorm.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").Order("id ASC")
	if err := paginate(q, opts).Find(&contractors).Error; err != nil {
		return nil, mapError(err, "contractor", "owner="+ownerID, "")
	}
	return contractors, nil
}

// UpdateContractor is UPDATE ... WHERE id = ? AND owner_id = ?.
// Trades go through a single-row struct update so the json serializer runs.
func (db *DB) UpdateContractor(ctx context.Context, contractor *model.Contractor) error {
	if contractor.Trades == nil {
		contractor.Trades = []string{}
	}
	contractor.UpdatedAt = time.Now().UTC()

	result := db.gorm.WithContext(ctx).
		Model(&model.Contractor{}).
		Where("id = ? AND owner_id = ?", contractor.ID, contractor.OwnerID).
		Select("name", "email", "phone", "company", "trades", "rating", "updated_at").
		Updates(contractor)
	if result.Error != nil {
		return mapError(result.Error, "contractor", contractor.ID, "email")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("contractor", contractor.ID)
	}
	return nil
}

func (db *DB) DeleteContractor(ctx context.Context, id, ownerID string) error {
	result := db.gorm.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Contractor{})
	if result.Error != nil {
		return mapError(result.Error, "contractor", id, "")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("contractor", id)
	}
	return nil
}
