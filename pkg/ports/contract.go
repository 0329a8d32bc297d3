package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	key := "contract-test-session-" + time.Now().Format("20060102150405")
	newSession := func(key string) *domain.Session {
		return domain.NewSession(domain.Identity{Username: key}, time.Now())
	}

	t.Run("Save and Load", func(t *testing.T) {
		s := newSession(key)
		s.Cart = append(s.Cart, domain.NewPrecomputedEntry("Roses", 3, "30.00€"))
		s.Dialogue = domain.DialogueAwaitingAddress

		err := store.Save(ctx, key, s)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.Key, loaded.Key)
		assert.Equal(t, domain.DialogueAwaitingAddress, loaded.Dialogue)
		require.Len(t, loaded.Cart, 1)
		assert.Equal(t, "30.00€", loaded.Cart[0].FrozenPrice)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Loaded Value Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, newSession(key)))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		loaded.Cart = append(loaded.Cart, domain.NewPrecomputedEntry("Tulips", 1, "5.00€"))

		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, again.Cart, "mutating a loaded session must not leak into the store")
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, newSession(key))
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, newSession(id1))
		_ = store.Save(ctx, id2, newSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
