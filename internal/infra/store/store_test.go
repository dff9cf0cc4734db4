package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecast/tunecast/internal/domain/account"
	"github.com/tunecast/tunecast/internal/domain/track"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test store")

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStore_CreateAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, "hash-1", a.PasswordHash)
	assert.Equal(t, 45, a.DefaultOffsetSec)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestStore_CreateAccount_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "alice@example.com", "alice2", "hash-2", 45)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "alice2@example.com", "alice", "hash-2", 45)
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("invalid username rejected before insert", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "bob@example.com", "bob!", "hash-3", 45)
		assert.ErrorIs(t, err, account.ErrUsernameInvalidChars)
	})
}

func TestStore_AccountLookups(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		a, err := s.AccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, a.ID)
		assert.Equal(t, "alice", a.Username)
	})

	t.Run("by username", func(t *testing.T) {
		a, err := s.AccountByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, a.ID)
	})

	t.Run("by id", func(t *testing.T) {
		a, err := s.AccountByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", a.Email)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := s.AccountByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrAccountNotFound)

		_, err = s.AccountByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrAccountNotFound)

		_, err = s.AccountByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestStore_UsernameExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	exists, err := s.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_UpdateDefaultOffset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	require.NoError(t, s.UpdateDefaultOffset(ctx, created.ID, 90))

	a, err := s.AccountByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, a.DefaultOffsetSec)

	t.Run("missing account", func(t *testing.T) {
		err := s.UpdateDefaultOffset(ctx, 99999, 90)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestStore_UpdatePreferredService(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)

	require.NoError(t, s.UpdatePreferredService(ctx, "alice", track.ServiceYouTube))

	a, err := s.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, track.ServiceYouTube, a.PreferredService)

	t.Run("missing account", func(t *testing.T) {
		err := s.UpdatePreferredService(ctx, "nobody", track.ServiceSpotify)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, "alice@example.com", "alice", "hash-1", 45)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	a, err := s2.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", a.Email)
}
