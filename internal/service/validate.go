package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/repository"
)

// Validation constants shared by the project and contractor services.
const (
	MaxNameLength        = 200
	MaxAddressLength     = 500
	MaxDescriptionLength = 5000
	MaxEmailLength       = 254
	MaxPhoneLength       = 50
	MaxCompanyLength     = 200
	MaxTrades            = 50
	MaxRating            = 5.0
	MaxListLimit         = 500
)

// emailPattern is a syntactic check only: something@something.tld with no
// whitespace. Deliverability is not our problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Nullable is a field in a partial update that distinguishes "not sent" from
// "sent as null".
//
//	{}                      → Set=false             leave unchanged
//	{"budget": null}        → Set=true, Value=nil   clear
//	{"budget": 1200}        → Set=true, Value=&1200 overwrite
//
// A plain pointer cannot tell the first two apart: encoding/json leaves it
// nil in both cases.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called when the key is present, including for a
// literal null.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Value returns a Nullable that sets the field to v.
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// requiredText trims s and rejects it when empty or longer than max runes.
func requiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if len([]rune(s)) > max {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return s, nil
}

// optionalText trims s. Nil or blank becomes nil so the column is NULL.
func optionalText(field string, s *string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > max {
		return nil, apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return &trimmed, nil
}

// normalizeEmail trims, lower-cases and syntax-checks an address.
func normalizeEmail(s string) (string, error) {
	email, err := requiredText("email", s, MaxEmailLength)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

// normalizeTrades treats trades as a set of tags: trimmed, lower-cased,
// de-duplicated, blanks dropped. First occurrence order is kept.
func normalizeTrades(trades []string) ([]string, error) {
	out := make([]string, 0, len(trades))
	for _, t := range trades {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	if len(out) > MaxTrades {
		return nil, apperror.ValidationFailed("trades",
			fmt.Sprintf("at most %d trades are allowed", MaxTrades))
	}
	return out, nil
}

func validateRating(r float64) error {
	if r < 0 || r > MaxRating {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between 0 and %g", MaxRating))
	}
	return nil
}

func validateBudget(b *float64) error {
	if b != nil && *b < 0 {
		return apperror.ValidationFailed("budget", "budget must not be negative")
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. Nil or
// blank input yields nil.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.ValidationFailed(field,
		field+" must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperror.ValidationFailed("endDate", "endDate must not be before startDate")
	}
	return nil
}

func validateListOptions(opts repository.ListOptions) error {
	if opts.Limit < 0 || opts.Limit > MaxListLimit {
		return apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 0 and %d", MaxListLimit))
	}
	if opts.Offset < 0 {
		return apperror.ValidationFailed("offset", "offset must not be negative")
	}
	return nil
}
