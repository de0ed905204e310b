package namestore

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "nested", "user_name.txt"))
}

func TestStore_Load(t *testing.T) {
	t.Run("should report a missing file as no name", func(t *testing.T) {
		_, err := newStore(t).Load()
		assert.ErrorIs(t, err, ErrNoName)
	})

	t.Run("should trim the stored name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0o700))
		require.NoError(t, os.WriteFile(s.Path, []byte("  Zoë \n"), 0o600))

		name, err := s.Load()

		require.NoError(t, err)
		assert.Equal(t, "Zoë", name)
	})

	t.Run("should treat a blank file as no name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0o700))
		require.NoError(t, os.WriteFile(s.Path, []byte("\n\t "), 0o600))

		_, err := s.Load()
		assert.ErrorIs(t, err, ErrNoName)
	})
}

func TestStore_Save(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save(" Alice "))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	assert.ErrorIs(t, s.Save("   "), ErrNoName)
}

func TestStore_Resolve(t *testing.T) {
	t.Run("should return the stored name without prompting", func(t *testing.T) {
		// given
		s := newStore(t)
		require.NoError(t, s.Save("Alice"))
		var out bytes.Buffer

		// when
		name, err := s.Resolve(strings.NewReader("Bob\n"), &out, true)

		// then
		require.NoError(t, err)
		assert.Equal(t, "Alice", name)
		assert.Empty(t, out.String())
	})

	t.Run("should prompt once and persist the answer", func(t *testing.T) {
		// given
		s := newStore(t)
		var out bytes.Buffer

		// when
		name, err := s.Resolve(strings.NewReader("  Bob  \n"), &out, true)

		// then
		require.NoError(t, err)
		assert.Equal(t, "Bob", name)
		assert.Equal(t, "What's your name? ", out.String())
		stored, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "Bob", stored)
	})

	t.Run("should accept an answer without trailing newline", func(t *testing.T) {
		s := newStore(t)

		name, err := s.Resolve(strings.NewReader("Carol"), &bytes.Buffer{}, true)

		require.NoError(t, err)
		assert.Equal(t, "Carol", name)
	})

	t.Run("should not prompt when not interactive", func(t *testing.T) {
		s := newStore(t)
		var out bytes.Buffer

		_, err := s.Resolve(strings.NewReader("Bob\n"), &out, false)

		assert.ErrorIs(t, err, ErrNoName)
		assert.Empty(t, out.String())
	})

	t.Run("should give up on an empty answer", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Resolve(strings.NewReader("\n"), &bytes.Buffer{}, true)

		assert.ErrorIs(t, err, ErrNoName)
		_, statErr := os.Stat(s.Path)
		assert.True(t, os.IsNotExist(statErr))
	})
}
