package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultProviderAPIURL is the identity provider's backend API.
const DefaultProviderAPIURL = "https://api.clerk.com"

// maxProfileBodyBytes caps how much of a provider response is read.
const maxProfileBodyBytes = 1 << 20

// ErrProfileNotFound is returned when the provider does not know the subject.
var ErrProfileNotFound = errors.New("auth: provider user not found")

// EmailAddress is one address attached to a provider account.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

// Verified reports whether the provider has confirmed the address.
func (e EmailAddress) Verified() bool {
	return e.Verification != nil && e.Verification.Status == "verified"
}

// Profile is the portion of the provider's user object we care about. The
// provider returns a much larger document; only these fields are decoded.
type Profile struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Username              string         `json:"username"`
}

// PrimaryEmail picks the address to cache locally: the designated primary
// address, else the first verified one, else the first listed. Returns ""
// when the account has no addresses.
func (p *Profile) PrimaryEmail() string {
	for _, e := range p.EmailAddresses {
		if e.ID != "" && e.ID == p.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	for _, e := range p.EmailAddresses {
		if e.Verified() {
			return e.EmailAddress
		}
	}
	if len(p.EmailAddresses) > 0 {
		return p.EmailAddresses[0].EmailAddress
	}
	return ""
}

// ProfileFetcher looks up a user profile by provider subject id.
type ProfileFetcher interface {
	GetUser(ctx context.Context, subjectID string) (*Profile, error)
}

// ProviderClient calls the identity provider's backend API.
//
// AUTHENTICATION:
// The backend API is authenticated with the instance secret key sent as a
// bearer token. oauth2.StaticTokenSource plus oauth2.NewClient gives an
// *http.Client that adds "Authorization: Bearer <secret>" to every request,
// the same way a user's OAuth access token would be attached.
type ProviderClient struct {
	baseURL string
	client  *http.Client
}

var _ ProfileFetcher = (*ProviderClient)(nil)

// NewProviderClient creates a client for the provider API at baseURL.
// base, if non-nil, is the transport-level client (timeouts, test servers).
func NewProviderClient(baseURL, secretKey string, base *http.Client) (*ProviderClient, error) {
	if secretKey == "" {
		return nil, errors.New("auth: provider secret key is required")
	}
	if baseURL == "" {
		baseURL = DefaultProviderAPIURL
	}
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}

	// oauth2.NewClient picks up the base client from the context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: secretKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = base.Timeout

	return &ProviderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

// GetUser fetches GET {baseURL}/v1/users/{id}.
func (c *ProviderClient) GetUser(ctx context.Context, subjectID string) (*Profile, error) {
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(subjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling provider users API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, subjectID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth: provider users API returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBodyBytes)).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding provider user: %w", err)
	}

	return &profile, nil
}
