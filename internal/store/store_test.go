package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the same contract checks against any Store.
func exercise(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("draft", []byte(`{"version":1}`)))
	got, err := s.Get("draft")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))

	require.NoError(t, s.Set("draft", []byte(`{"version":2}`)))
	got, err = s.Get("draft")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(got), "Set must overwrite")

	require.NoError(t, s.Delete("draft"))
	_, err = s.Get("draft")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete("draft"), "deleting a missing key is not an error")
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set("k", value))
	value[0] = 'x'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[0] = 'y'
	again, _ := m.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestMemory_Failures(t *testing.T) {
	m := NewMemory()
	boom := errors.New("quota exceeded")

	m.FailWrites(boom)
	assert.ErrorIs(t, m.Set("k", []byte("v")), boom)
	assert.ErrorIs(t, m.Delete("k"), boom)
	assert.Equal(t, 1, m.SetCalls())

	m.FailWrites(nil)
	require.NoError(t, m.Set("k", []byte("v")))

	m.FailReads(boom)
	_, err := m.Get("k")
	assert.ErrorIs(t, err, boom)
}

func TestOpen_SQLite(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "store.db")

	s, err := Open(url, Options{Namespace: "ws-a", AutoMigrate: true})
	require.NoError(t, err)
	defer s.Close()

	exercise(t, s)
}

func TestOpen_SQLiteNamespaces(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "store.db")

	a, err := Open(url, Options{Namespace: "ws-a", AutoMigrate: true})
	require.NoError(t, err)
	defer a.Close()

	b, err := Open(url, Options{Namespace: "ws-b", AutoMigrate: true})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set("draft", []byte("from a")))
	_, err = b.Get("draft")
	assert.ErrorIs(t, err, ErrNotFound, "namespaces must not leak")

	require.NoError(t, b.Set("draft", []byte("from b")))
	got, err := a.Get("draft")
	require.NoError(t, err)
	assert.Equal(t, "from a", string(got))
}

func TestOpen_SQLiteRequiresMigrations(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "store.db")

	_, err := Open(url, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not applied")
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open("memory:", Options{})
	require.NoError(t, err)
	exercise(t, s)
	assert.NoError(t, s.Close())
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open("ftp://example.com/store", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage scheme")
}
