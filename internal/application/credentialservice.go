package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

// ErrValidation is returned when a create or update leaves a required field empty.
var ErrValidation = errors.New("validation failed")

// CredentialInput carries the user-supplied fields of a create request.
// IsActive is a pointer so that an omitted flag can default to true.
type CredentialInput struct {
	Name        string
	SecretValue string
	BaseURL     string
	Model       string
	Description string
	Category    string
	IsActive    *bool
}

// CredentialService implements the owner-scoped credential operations on top
// of a CredentialStore. It depends only on port interfaces.
type CredentialService struct {
	store driven.CredentialStore
}

// NewCredentialService creates a CredentialService backed by store.
func NewCredentialService(store driven.CredentialStore) *CredentialService {
	return &CredentialService{store: store}
}

// List returns the owner's credentials, most recently updated first.
func (s *CredentialService) List(ctx context.Context, ownerID string) ([]model.Credential, error) {
	return s.store.List(ctx, ownerID)
}

// Get returns one credential owned by ownerID.
func (s *CredentialService) Get(ctx context.Context, ownerID, id string) (model.Credential, error) {
	return s.store.Get(ctx, id, ownerID)
}

// Create validates input, applies defaults and stores a credential owned by ownerID.
func (s *CredentialService) Create(ctx context.Context, ownerID string, in CredentialInput) (model.Credential, error) {
	if missing := missingRequired(in); len(missing) > 0 {
		return model.Credential{}, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	cred := model.Credential{
		Name:        in.Name,
		SecretValue: in.SecretValue,
		BaseURL:     in.BaseURL,
		Model:       in.Model,
		Description: in.Description,
		Category:    in.Category,
		IsActive:    true,
		OwnerID:     ownerID,
	}
	if cred.Category == "" {
		cred.Category = model.DefaultCategory
	}
	if in.IsActive != nil {
		cred.IsActive = *in.IsActive
	}

	return s.store.Insert(ctx, cred)
}

// Update merges patch over the owner's credential. Required fields that are
// supplied must not be empty; an empty category resets to the default.
func (s *CredentialService) Update(ctx context.Context, ownerID, id string, patch model.CredentialPatch) (model.Credential, error) {
	required := []struct {
		field string
		value *string
	}{
		{model.FieldName, patch.Name},
		{model.FieldSecretValue, patch.SecretValue},
		{model.FieldBaseURL, patch.BaseURL},
		{model.FieldModel, patch.Model},
	}

	var empty []string
	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			empty = append(empty, r.field)
		}
	}
	if len(empty) > 0 {
		return model.Credential{}, fmt.Errorf("%w: empty %s", ErrValidation, strings.Join(empty, ", "))
	}

	if patch.Category != nil && *patch.Category == "" {
		def := model.DefaultCategory
		patch.Category = &def
	}

	return s.store.Update(ctx, id, ownerID, patch)
}

// Delete removes the owner's credential.
func (s *CredentialService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, id, ownerID)
}

func missingRequired(in CredentialInput) []string {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, model.FieldName)
	}
	if strings.TrimSpace(in.SecretValue) == "" {
		missing = append(missing, model.FieldSecretValue)
	}
	if strings.TrimSpace(in.BaseURL) == "" {
		missing = append(missing, model.FieldBaseURL)
	}
	if strings.TrimSpace(in.Model) == "" {
		missing = append(missing, model.FieldModel)
	}
	return missing
}
