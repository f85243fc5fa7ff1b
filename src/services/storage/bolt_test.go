package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("chat_session_id")
	require.NoError(t, err)
	assert.False(t, ok, "fresh store should hold nothing")

	require.NoError(t, store.Put("chat_session_id", "abc-123"))

	value, ok, err := store.Get("chat_session_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", value)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("chat_session_id", "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("chat_session_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("k", "v"))
	value, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}
