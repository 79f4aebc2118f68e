// Package storetest holds the behavioural test suite shared by every
// driven.CredentialStore implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

// Factory builds a fresh, empty store that reads the current time from now.
type Factory func(t *testing.T, now func() time.Time) driven.CredentialStore

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

// NewClock returns a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{cur: start}
}

// Now returns the current clock value.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

var suiteStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// SampleCredential returns a fully populated credential owned by ownerID.
func SampleCredential(ownerID string) model.Credential {
	return model.Credential{
		Name:        "prod",
		SecretValue: "sk-abc",
		BaseURL:     "https://api.example.com",
		Model:       "gpt-4",
		Description: "primary key",
		Category:    "Production",
		IsActive:    true,
		OwnerID:     ownerID,
	}
}

func ptr[T any](v T) *T { return &v }

// RunCredentialStoreSuite exercises the CredentialStore contract against the
// store returned by newStore.
func RunCredentialStoreSuite(t *testing.T, newStore Factory) {
	t.Run("InsertMintsIdentityAndTimestamps", func(t *testing.T) {
		clock := NewClock(suiteStart)
		store := newStore(t, clock.Now)
		ctx := context.Background()

		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			got, err := store.Insert(ctx, SampleCredential("u1"))
			require.NoError(t, err)

			assert.Len(t, got.ID, 36)
			assert.False(t, seen[got.ID], "id %s reused", got.ID)
			seen[got.ID] = true

			assert.Equal(t, "u1", got.OwnerID)
			assert.True(t, got.CreatedAt.Equal(clock.Now()))
			assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
		}
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)
		ctx := context.Background()

		in := SampleCredential("u1")
		created, err := store.Insert(ctx, in)
		require.NoError(t, err)

		got, err := store.Get(ctx, created.ID, "u1")
		require.NoError(t, err)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.SecretValue, got.SecretValue)
		assert.Equal(t, in.BaseURL, got.BaseURL)
		assert.Equal(t, in.Model, got.Model)
		assert.Equal(t, in.Description, got.Description)
		assert.Equal(t, in.Category, got.Category)
		assert.Equal(t, in.IsActive, got.IsActive)
		assert.Equal(t, "u1", got.OwnerID)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("OwnerScoping", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)
		ctx := context.Background()

		created, err := store.Insert(ctx, SampleCredential("u1"))
		require.NoError(t, err)

		_, err = store.Get(ctx, created.ID, "u2")
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

		_, err = store.Update(ctx, created.ID, "u2", model.CredentialPatch{Name: ptr("stolen")})
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

		err = store.Delete(ctx, created.ID, "u2")
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

		list, err := store.List(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, list)

		got, err := store.Get(ctx, created.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, "prod", got.Name, "foreign update must not apply")
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)

		_, err := store.Get(context.Background(), "00000000-0000-0000-0000-000000000000", "u1")
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
	})

	t.Run("ListEmptyIsNotNil", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)

		list, err := store.List(context.Background(), "nobody")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("ListOrderedByUpdatedAtDesc", func(t *testing.T) {
		clock := NewClock(suiteStart)
		store := newStore(t, clock.Now)
		ctx := context.Background()

		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			c := SampleCredential("u1")
			c.Name = name
			created, err := store.Insert(ctx, c)
			require.NoError(t, err)
			ids = append(ids, created.ID)
			clock.Advance(time.Second)
		}

		list, err := store.List(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"third", "second", "first"}, names(list))

		_, err = store.Update(ctx, ids[0], "u1", model.CredentialPatch{Description: ptr("touched")})
		require.NoError(t, err)

		list, err = store.List(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "third", "second"}, names(list))
	})

	t.Run("UpdateMergesAndRefreshesUpdatedAt", func(t *testing.T) {
		clock := NewClock(suiteStart)
		store := newStore(t, clock.Now)
		ctx := context.Background()

		created, err := store.Insert(ctx, SampleCredential("u1"))
		require.NoError(t, err)

		clock.Advance(time.Minute)
		updated, err := store.Update(ctx, created.ID, "u1", model.CredentialPatch{IsActive: ptr(false)})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "prod", updated.Name)
		assert.Equal(t, "sk-abc", updated.SecretValue)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		got, err := store.Get(ctx, created.ID, "u1")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("UpdateWithFrozenClockStillAdvances", func(t *testing.T) {
		clock := NewClock(suiteStart)
		store := newStore(t, clock.Now)
		ctx := context.Background()

		created, err := store.Insert(ctx, SampleCredential("u1"))
		require.NoError(t, err)

		first, err := store.Update(ctx, created.ID, "u1", model.CredentialPatch{Name: ptr("a")})
		require.NoError(t, err)
		second, err := store.Update(ctx, created.ID, "u1", model.CredentialPatch{Name: ptr("b")})
		require.NoError(t, err)

		assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assert.False(t, second.UpdatedAt.Before(second.CreatedAt))
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)

		_, err := store.Update(context.Background(), "missing", "u1", model.CredentialPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		store := newStore(t, NewClock(suiteStart).Now)
		ctx := context.Background()

		created, err := store.Insert(ctx, SampleCredential("u1"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID, "u1"))

		_, err = store.Get(ctx, created.ID, "u1")
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)

		err = store.Delete(ctx, created.ID, "u1")
		assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
	})
}

func names(creds []model.Credential) []string {
	out := make([]string, len(creds))
	for i, c := range creds {
		out[i] = c.Name
	}
	return out
}
