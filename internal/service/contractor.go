package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

// CreateContractorInput is the payload for a new contractor.
type CreateContractorInput struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   *string  `json:"phone"`
	Company *string  `json:"company"`
	Trades  []string `json:"trades"`
	Rating  *float64 `json:"rating"`
}

// UpdateContractorInput is a partial update. A null trades list empties the
// set.
type UpdateContractorInput struct {
	Name    *string            `json:"name"`
	Email   *string            `json:"email"`
	Phone   Nullable[string]   `json:"phone"`
	Company Nullable[string]   `json:"company"`
	Trades  Nullable[[]string] `json:"trades"`
	Rating  *float64           `json:"rating"`
}

// ContractorService handles business logic for contractors.
//
// EMAIL UNIQUENESS:
// Contractor emails are unique across every owner. The service normalises
// the address (trim, lower-case) and lets the database's unique index decide;
// the store reports a collision as apperror.Conflict. Checking first with a
// SELECT would race with a concurrent insert.
type ContractorService struct {
	repo   repository.ContractorRepository
	logger *slog.Logger
}

func NewContractorService(repo repository.ContractorRepository, logger *slog.Logger) *ContractorService {
	return &ContractorService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates in and saves a contractor owned by ownerID.
func (s *ContractorService) Create(ctx context.Context, ownerID string, in CreateContractorInput) (*model.Contractor, error) {
	name, err := requiredText("name", in.Name, MaxNameLength)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	phone, err := optionalText("phone", in.Phone, MaxPhoneLength)
	if err != nil {
		return nil, err
	}
	company, err := optionalText("company", in.Company, MaxCompanyLength)
	if err != nil {
		return nil, err
	}
	trades, err := normalizeTrades(in.Trades)
	if err != nil {
		return nil, err
	}
	var rating float64
	if in.Rating != nil {
		rating = *in.Rating
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	contractor := &model.Contractor{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Company: company,
		Trades:  trades,
		Rating:  rating,
		OwnerID: ownerID,
	}

	if err := s.repo.CreateContractor(ctx, contractor); err != nil {
		if !apperror.IsConflict(err) {
			s.logger.Error("failed to create contractor",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("creating contractor: %w", err)
	}

	s.logger.Info("contractor created",
		slog.String("id", contractor.ID),
		slog.String("owner_id", ownerID),
	)
	return contractor, nil
}

// Get returns the contractor if ownerID owns it.
func (s *ContractorService) Get(ctx context.Context, ownerID, id string) (*model.Contractor, error) {
	contractor, err := s.repo.GetContractor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting contractor: %w", err)
	}
	if contractor.OwnerID != ownerID {
		return nil, apperror.AccessDenied("contractor", id)
	}
	return contractor, nil
}

// List returns ownerID's contractors ordered by name.
func (s *ContractorService) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Contractor, error) {
	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	contractors, err := s.repo.ListContractorsByOwner(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing contractors: %w", err)
	}
	return contractors, nil
}

// Update applies the fields present in in to a contractor ownerID owns.
func (s *ContractorService) Update(ctx context.Context, ownerID, id string, in UpdateContractorInput) (*model.Contractor, error) {
	contractor, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if contractor.Name, err = requiredText("name", *in.Name, MaxNameLength); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if contractor.Email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Phone.Set {
		if contractor.Phone, err = optionalText("phone", in.Phone.Value, MaxPhoneLength); err != nil {
			return nil, err
		}
	}
	if in.Company.Set {
		if contractor.Company, err = optionalText("company", in.Company.Value, MaxCompanyLength); err != nil {
			return nil, err
		}
	}
	if in.Trades.Set {
		var trades []string
		if in.Trades.Value != nil {
			trades = *in.Trades.Value
		}
		if contractor.Trades, err = normalizeTrades(trades); err != nil {
			return nil, err
		}
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		contractor.Rating = *in.Rating
	}

	if err := s.repo.UpdateContractor(ctx, contractor); err != nil {
		return nil, fmt.Errorf("updating contractor: %w", err)
	}

	s.logger.Info("contractor updated", slog.String("id", id))
	return contractor, nil
}

// Delete removes a contractor ownerID owns.
func (s *ContractorService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteContractor(ctx, id, ownerID); err != nil {
		return fmt.Errorf("deleting contractor: %w", err)
	}

	s.logger.Info("contractor deleted", slog.String("id", id))
	return nil
}
