package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/repository"
)

func TestContractorCreate_NormalisesInput(t *testing.T) {
	svc, _ := newTestContractorService(t)

	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{
		Name:    " Acme Roofing ",
		Email:   "  Info@Acme.COM ",
		Phone:   strPtr(" "),
		Company: strPtr(" Acme Ltd "),
		Trades:  []string{"Roofing", " roofing", "", "Gutters "},
		Rating:  floatPtr(4.5),
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Roofing", c.Name)
	assert.Equal(t, "info@acme.com", c.Email)
	assert.Nil(t, c.Phone)
	require.NotNil(t, c.Company)
	assert.Equal(t, "Acme Ltd", *c.Company)
	assert.Equal(t, []string{"roofing", "gutters"}, c.Trades)
	assert.Equal(t, 4.5, c.Rating)
	assert.Equal(t, ownerA, c.OwnerID)
}

func TestContractorCreate_Defaults(t *testing.T) {
	svc, _ := newTestContractorService(t)

	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Bo", Email: "bo@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.Rating)
	assert.NotNil(t, c.Trades)
	assert.Empty(t, c.Trades)
}

func TestContractorCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		in        CreateContractorInput
		wantField string
	}{
		{"missing name", CreateContractorInput{Email: "a@b.co"}, "name"},
		{"missing email", CreateContractorInput{Name: "Acme"}, "email"},
		{"email without at", CreateContractorInput{Name: "Acme", Email: "acme.com"}, "email"},
		{"email without tld", CreateContractorInput{Name: "Acme", Email: "info@acme"}, "email"},
		{"email with space", CreateContractorInput{Name: "Acme", Email: "in fo@acme.com"}, "email"},
		{"rating above five", CreateContractorInput{Name: "Acme", Email: "a@b.co", Rating: floatPtr(5.5)}, "rating"},
		{"negative rating", CreateContractorInput{Name: "Acme", Email: "a@b.co", Rating: floatPtr(-1)}, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestContractorService(t)

			_, err := svc.Create(context.Background(), ownerA, tt.in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestContractorCreate_DuplicateEmailAcrossOwners(t *testing.T) {
	svc, _ := newTestContractorService(t)

	_, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Acme", Email: "Info@Acme.com"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ownerB, CreateContractorInput{Name: "Acme Again", Email: "info@acme.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestContractorGet_OwnerVsStranger(t *testing.T) {
	svc, _ := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), ownerA, c.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), ownerB, c.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Get(context.Background(), ownerA, "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestContractorList_ScopedAndSortedByName(t *testing.T) {
	svc, _ := newTestContractorService(t)
	for _, in := range []CreateContractorInput{
		{Name: "Zed Electric", Email: "z@x.com"},
		{Name: "Alpha Plumbing", Email: "a@x.com"},
	} {
		_, err := svc.Create(context.Background(), ownerA, in)
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), ownerB, CreateContractorInput{Name: "Other", Email: "o@x.com"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), ownerA, repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha Plumbing", list[0].Name)
	assert.Equal(t, "Zed Electric", list[1].Name)
}

func TestContractorUpdate_Partial(t *testing.T) {
	svc, _ := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{
		Name: "Acme", Email: "a@acme.com", Phone: strPtr("555-0100"), Trades: []string{"roofing"}, Rating: floatPtr(3),
	})
	require.NoError(t, err)

	var in UpdateContractorInput
	require.NoError(t, json.Unmarshal([]byte(`{"rating": 4, "phone": null, "trades": ["Framing", "framing"]}`), &in))

	updated, err := svc.Update(context.Background(), ownerA, c.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "a@acme.com", updated.Email)
	assert.Nil(t, updated.Phone)
	assert.Equal(t, []string{"framing"}, updated.Trades)
	assert.Equal(t, 4.0, updated.Rating)
}

func TestContractorUpdate_NullTradesEmptiesSet(t *testing.T) {
	svc, _ := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{
		Name: "Acme", Email: "a@acme.com", Trades: []string{"roofing"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ownerA, c.ID, UpdateContractorInput{Trades: Null[[]string]()})
	require.NoError(t, err)
	assert.Empty(t, updated.Trades)
}

func TestContractorUpdate_EmailConflictAndValidation(t *testing.T) {
	svc, _ := newTestContractorService(t)
	_, err := svc.Create(context.Background(), ownerB, CreateContractorInput{Name: "Taken", Email: "taken@x.com"})
	require.NoError(t, err)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Mine", Email: "mine@x.com"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ownerA, c.ID, UpdateContractorInput{Email: strPtr("TAKEN@x.com")})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Update(context.Background(), ownerA, c.ID, UpdateContractorInput{Email: strPtr("")})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Update(context.Background(), ownerA, c.ID, UpdateContractorInput{Rating: floatPtr(9)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestContractorUpdateAndDelete_Stranger(t *testing.T) {
	svc, store := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), ownerB, c.ID, UpdateContractorInput{Name: strPtr("Mine now")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	err = svc.Delete(context.Background(), ownerB, c.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	assert.Equal(t, "Acme", store.contractors[c.ID].Name)
}

func TestContractorDelete(t *testing.T) {
	svc, _ := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), ownerA, c.ID))

	_, err = svc.Get(context.Background(), ownerA, c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestContractorDelete_RowVanishesMidway(t *testing.T) {
	svc, store := newTestContractorService(t)
	c, err := svc.Create(context.Background(), ownerA, CreateContractorInput{Name: "Acme", Email: "a@acme.com"})
	require.NoError(t, err)
	store.vanish = true

	err = svc.Delete(context.Background(), ownerA, c.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
