package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFile(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "refrain", "session.json")

		_, err := newSessionFile(path)
		require.NoError(t, err)

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("load without a session returns ErrNoSession", func(t *testing.T) {
		f, err := newSessionFile(filepath.Join(t.TempDir(), "session.json"))
		require.NoError(t, err)

		_, err = f.Load()
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("save and load round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		f, err := newSessionFile(path)
		require.NoError(t, err)

		sess := &Session{
			UserID:       "u1",
			Email:        "alex@example.com",
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}
		require.NoError(t, f.Save(sess))

		loaded, err := f.Load()
		require.NoError(t, err)
		assert.Equal(t, sess, loaded)

		// Token material is written with 0600 permissions.
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("clear removes the session", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		f, err := newSessionFile(path)
		require.NoError(t, err)

		require.NoError(t, f.Save(&Session{UserID: "u1"}))
		require.NoError(t, f.Clear())

		_, err = f.Load()
		require.ErrorIs(t, err, ErrNoSession)

		// Clearing twice is fine.
		require.NoError(t, f.Clear())
	})
}
