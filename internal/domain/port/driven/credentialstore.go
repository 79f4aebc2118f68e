// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
)

// Sentinel errors returned by CredentialStore implementations.
var (
	// ErrCredentialNotFound indicates no credential with the given id is owned
	// by the caller. Absent rows and rows of another owner are not distinguished.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrStorageUnavailable wraps driver failures of the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// CredentialStore defines the driven port for credential persistence.
// Every read and write is scoped to ownerID; implementations never return or
// modify rows owned by someone else.
type CredentialStore interface {
	// List returns the owner's credentials, most recently updated first.
	List(ctx context.Context, ownerID string) ([]model.Credential, error)

	// Get returns the credential or ErrCredentialNotFound.
	Get(ctx context.Context, id, ownerID string) (model.Credential, error)

	// Insert mints ID, CreatedAt and UpdatedAt and stores the credential.
	Insert(ctx context.Context, cred model.Credential) (model.Credential, error)

	// Update merges patch over the stored row, refreshes UpdatedAt and returns
	// the result. Returns ErrCredentialNotFound if no owned row matches.
	Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error)

	// Delete removes the row permanently. Returns ErrCredentialNotFound if no
	// owned row matches.
	Delete(ctx context.Context, id, ownerID string) error
}
