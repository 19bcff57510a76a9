package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/auth"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/repository"
)

// ProvisionOutcome says which path EnsureUser took.
type ProvisionOutcome int

const (
	// ProvisionRefreshed means the provider profile was fetched and the
	// cached email and name were written.
	ProvisionRefreshed ProvisionOutcome = iota + 1
	// ProvisionFallback means the provider could not be reached; the row was
	// created with placeholder values if absent and otherwise left untouched.
	ProvisionFallback
)

func (o ProvisionOutcome) String() string {
	switch o {
	case ProvisionRefreshed:
		return "refreshed"
	case ProvisionFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ShadowResult is the local user row for an authenticated subject plus the
// path taken to produce it.
type ShadowResult struct {
	User    *model.User
	Outcome ProvisionOutcome
}

// IdentityService keeps a local "shadow" user row for every identity-provider
// subject that calls the API.
//
// WHY A SHADOW ROW?
// Projects and contractors reference their owner by foreign key. The provider
// owns the real account, so we keep a minimal local copy (external id, cached
// email and name) that rows can point at. It is created lazily on the first
// authenticated request and refreshed on later ones.
//
// DEPENDENCIES:
//   - profiles  auth.ProfileFetcher          → provider backend API (may be nil)
//   - users     repository.UserRepository    → shadow rows
//   - logger    *slog.Logger
type IdentityService struct {
	profiles auth.ProfileFetcher
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewIdentityService creates an IdentityService. A nil profiles fetcher is
// allowed; every call then takes the fallback path.
func NewIdentityService(profiles auth.ProfileFetcher, users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		profiles: profiles,
		users:    users,
		logger:   logger,
	}
}

// EnsureUser returns the local user for externalID, creating it if needed.
//
// TWO PATHS:
//  1. Provider reachable: derive email and name from the profile and upsert,
//     so a changed address or name reaches the cached copy.
//  2. Provider failed: insert a placeholder row only if none exists. An
//     existing row keeps its last good profile. The provider error is logged
//     and swallowed; a flaky provider must not lock users out.
//
// Store errors are returned on both paths. Without a row the request cannot
// be attributed to an owner.
func (s *IdentityService) EnsureUser(ctx context.Context, externalID string) (*ShadowResult, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperror.ValidationFailed("externalId", "external user id is required")
	}

	profile, err := s.fetchProfile(ctx, externalID)
	if err != nil {
		s.logger.Warn("identity provider lookup failed, using fallback profile",
			slog.String("external_id", externalID),
			slog.String("error", err.Error()),
		)

		user := &model.User{
			ExternalID: externalID,
			Email:      model.PlaceholderEmail(externalID),
			Name:       model.DefaultUserName,
		}
		if err := s.users.InsertIfAbsent(ctx, user); err != nil {
			s.logger.Error("failed to insert fallback user",
				slog.String("external_id", externalID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("ensuring user %s: %w", externalID, err)
		}
		return &ShadowResult{User: user, Outcome: ProvisionFallback}, nil
	}

	user := &model.User{
		ExternalID: externalID,
		Email:      profileEmail(externalID, profile),
		Name:       profileName(profile),
	}
	if err := s.users.UpsertProfile(ctx, user); err != nil {
		s.logger.Error("failed to upsert user",
			slog.String("external_id", externalID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ensuring user %s: %w", externalID, err)
	}

	s.logger.Debug("user profile refreshed",
		slog.String("user_id", user.ID),
		slog.String("external_id", externalID),
	)
	return &ShadowResult{User: user, Outcome: ProvisionRefreshed}, nil
}

func (s *IdentityService) fetchProfile(ctx context.Context, externalID string) (*auth.Profile, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("no identity provider client configured")
	}
	return s.profiles.GetUser(ctx, externalID)
}

// profileEmail picks the address to cache, falling back to a placeholder
// when the account has none.
func profileEmail(externalID string, p *auth.Profile) string {
	email := strings.ToLower(strings.TrimSpace(p.PrimaryEmail()))
	if email == "" {
		return model.PlaceholderEmail(externalID)
	}
	return email
}

// profileName builds "first last" when a first name exists, else the
// username, else the default.
func profileName(p *auth.Profile) string {
	if first := strings.TrimSpace(p.FirstName); first != "" {
		return strings.TrimSpace(first + " " + strings.TrimSpace(p.LastName))
	}
	if username := strings.TrimSpace(p.Username); username != "" {
		return username
	}
	return model.DefaultUserName
}
