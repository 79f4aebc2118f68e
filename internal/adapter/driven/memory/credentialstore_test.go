package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyshelf/internal/adapter/driven/storetest"
	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

func TestCredentialStore_Suite(t *testing.T) {
	storetest.RunCredentialStoreSuite(t, func(t *testing.T, now func() time.Time) driven.CredentialStore {
		s := NewCredentialStore()
		s.now = now
		return s
	})
}

func TestCredentialStore_ConcurrentInserts(t *testing.T) {
	s := NewCredentialStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, model.Credential{Name: "k", OwnerID: "u1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestCredentialStore_ReturnsCopies(t *testing.T) {
	s := NewCredentialStore()
	ctx := context.Background()

	created, err := s.Insert(ctx, model.Credential{Name: "prod", OwnerID: "u1"})
	require.NoError(t, err)

	list, err := s.List(ctx, "u1")
	require.NoError(t, err)
	list[0].Name = "mutated"

	got, err := s.Get(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)
}
