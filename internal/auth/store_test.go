package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := testStore(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, domain.ErrNoToken, "empty store has no session")

	pair := TokenPair{Access: "acc", Refresh: "ref"}
	require.NoError(t, s.Save(pair))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestStoreClear(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(TokenPair{Access: "acc", Refresh: "ref"}))
	require.NoError(t, s.Clear())

	_, err := s.Load()
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestStoreOverwrite(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(TokenPair{Access: "old", Refresh: "old"}))
	require.NoError(t, s.Save(TokenPair{Access: "new", Refresh: "new"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", got.Access)
}
