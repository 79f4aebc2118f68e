package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyshelf/internal/adapter/driven/memory"
	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

func ptr[T any](v T) *T { return &v }

func validInput() CredentialInput {
	return CredentialInput{
		Name:        "prod",
		SecretValue: "sk-abc",
		BaseURL:     "https://api.example.com",
		Model:       "gpt-4",
		Category:    "Production",
		IsActive:    ptr(true),
	}
}

func TestCredentialService_CreateSetsOwnerAndDefaults(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())
	ctx := context.Background()

	in := validInput()
	in.Category = ""
	in.IsActive = nil

	got, err := svc.Create(ctx, "u1", in)
	require.NoError(t, err)

	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, model.DefaultCategory, got.Category)
	assert.True(t, got.IsActive)
	assert.NotEmpty(t, got.ID)
}

func TestCredentialService_CreateHonoursExplicitInactive(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())

	in := validInput()
	in.IsActive = ptr(false)

	got, err := svc.Create(context.Background(), "u1", in)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Production", got.Category)
}

func TestCredentialService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CredentialInput)
		wantMsg string
	}{
		{name: "missing name", mutate: func(in *CredentialInput) { in.Name = "" }, wantMsg: "name"},
		{name: "blank key", mutate: func(in *CredentialInput) { in.SecretValue = "  " }, wantMsg: "key"},
		{name: "missing baseUrl", mutate: func(in *CredentialInput) { in.BaseURL = "" }, wantMsg: "baseUrl"},
		{name: "missing model", mutate: func(in *CredentialInput) { in.Model = "" }, wantMsg: "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewCredentialStore()
			svc := NewCredentialService(store)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), "u1", in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)

			all, err := store.List(context.Background(), "u1")
			require.NoError(t, err)
			assert.Empty(t, all, "invalid input must not be stored")
		})
	}
}

func TestCredentialService_CreateAcceptsAnyURLScheme(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())

	in := validInput()
	in.BaseURL = "ftp://not-validated"

	_, err := svc.Create(context.Background(), "u1", in)
	assert.NoError(t, err)
}

func TestCredentialService_UpdateValidation(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, "u1", created.ID, model.CredentialPatch{Name: ptr(""), Model: ptr(" ")})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name, model")

	got, err := svc.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)
}

func TestCredentialService_UpdateEmptyCategoryResetsDefault(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", created.ID, model.CredentialPatch{Category: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategory, updated.Category)
}

func TestCredentialService_OwnerScoping(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

	_, err = svc.Update(ctx, "u2", created.ID, model.CredentialPatch{IsActive: ptr(false)})
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", created.ID), driven.ErrCredentialNotFound)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsActive)
}

func TestCredentialService_DeleteThenGet(t *testing.T) {
	svc := NewCredentialService(memory.NewCredentialStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", created.ID))

	_, err = svc.Get(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}
