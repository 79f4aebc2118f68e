// Package memory provides a process-local CredentialStore used when the
// database cannot be reached at startup. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore keeps credentials in insertion order behind a RWMutex.
// It applies the same owner scoping and ordering rules as the SQLite adapter.
type CredentialStore struct {
	mu    sync.RWMutex
	creds []model.Credential
	now   func() time.Time
}

// NewCredentialStore creates an empty in-memory store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{now: time.Now}
}

// List returns the owner's credentials ordered by UpdatedAt descending.
func (s *CredentialStore) List(_ context.Context, ownerID string) ([]model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Credential{}
	for _, c := range s.creds {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// Get returns the credential with the given id if it belongs to ownerID.
func (s *CredentialStore) Get(_ context.Context, id, ownerID string) (model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id, ownerID)
	if i < 0 {
		return model.Credential{}, fmt.Errorf("get credential %s: %w", id, driven.ErrCredentialNotFound)
	}
	return s.creds[i], nil
}

// Insert appends a new credential with a freshly minted id and timestamps.
func (s *CredentialStore) Insert(_ context.Context, cred model.Credential) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cred.ID = uuid.NewString()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	s.creds = append(s.creds, cred)
	return cred, nil
}

// Update merges patch over the owned credential and refreshes UpdatedAt.
func (s *CredentialStore) Update(_ context.Context, id, ownerID string, patch model.CredentialPatch) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id, ownerID)
	if i < 0 {
		return model.Credential{}, fmt.Errorf("update credential %s: %w", id, driven.ErrCredentialNotFound)
	}

	existing := s.creds[i]
	updated := patch.Apply(existing)
	updated.UpdatedAt = existing.NextUpdatedAt(s.now().UTC())

	s.creds[i] = updated
	return updated, nil
}

// Delete removes the owned credential.
func (s *CredentialStore) Delete(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id, ownerID)
	if i < 0 {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrCredentialNotFound)
	}

	s.creds = append(s.creds[:i], s.creds[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (s *CredentialStore) indexOf(id, ownerID string) int {
	for i, c := range s.creds {
		if c.ID == id && c.OwnerID == ownerID {
			return i
		}
	}
	return -1
}
