package portapack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySecretStoreRoundTrip(t *testing.T) {
	store := newMemorySecretStore()
	require.Equal(t, CapSecretStore, store.Capability())
	require.Equal(t, VariantPure, store.Variant())

	_, found, err := store.Get("app", "alice")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Set("app", "alice", "s3cret"))
	secret, found, err := store.Get("app", "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "s3cret", secret)

	require.NoError(t, store.Delete("app", "alice"))
	_, found, err = store.Get("app", "alice")
	require.NoError(t, err)
	require.False(t, found)

	// Deleting an absent entry is not an error.
	require.NoError(t, store.Delete("app", "alice"))
}

func TestMemorySecretStoreListIsScopedToService(t *testing.T) {
	store := newMemorySecretStore()
	require.NoError(t, store.Set("app", "bob", "1"))
	require.NoError(t, store.Set("app", "alice", "2"))
	require.NoError(t, store.Set("other", "carol", "3"))

	accounts, err := store.List("app")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, accounts)

	accounts, err = store.List("unknown")
	require.NoError(t, err)
	require.Empty(t, accounts)
}

// State is per instance: nothing survives a process restart.
func TestMemorySecretStoreDoesNotPersist(t *testing.T) {
	first := newMemorySecretStore()
	require.NoError(t, first.Set("app", "alice", "s3cret"))

	second := newMemorySecretStore()
	_, found, err := second.Get("app", "alice")
	require.NoError(t, err)
	require.False(t, found)
}
