package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewInMemorySessionStore()

	require.NoError(t, store.StoreNonce("s1", "n1"))

	nonce, err := store.RetrieveNonce("s1")
	require.NoError(t, err)
	require.Equal(t, "n1", nonce)

	require.NoError(t, store.RemoveNonce("s1"))

	_, err = store.RetrieveNonce("s1")
	require.Error(t, err)
}

func TestInMemorySessionStoreOverwrites(t *testing.T) {
	store := NewInMemorySessionStore()

	require.NoError(t, store.StoreNonce("s1", "n1"))
	require.NoError(t, store.StoreNonce("s1", "n2"))

	nonce, err := store.RetrieveNonce("s1")
	require.NoError(t, err)
	require.Equal(t, "n2", nonce)
}

func TestInMemorySessionStoreRemoveUnknown(t *testing.T) {
	store := NewInMemorySessionStore()
	require.Error(t, store.RemoveNonce("missing"))
}

func TestGenerateNonceLength(t *testing.T) {
	nonce, err := GenerateNonce(8)
	require.NoError(t, err)
	require.Len(t, nonce, 16)

	other, err := GenerateNonce(8)
	require.NoError(t, err)
	require.NotEqual(t, nonce, other)
}

func TestGenerateSessionIdUnique(t *testing.T) {
	a := GenerateSessionId()
	b := GenerateSessionId()
	require.NotEmpty(t, a)
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
}
