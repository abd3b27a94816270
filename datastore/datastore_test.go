package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(&doc{Name: "bell", Count: 3}))

	var got doc
	require.NoError(t, s.Load(&got))
	assert.Equal(t, doc{Name: "bell", Count: 3}, got)
}

func TestStore_LoadMissingFile(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	var got doc
	err = s.Load(&got)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := New(path)
	require.NoError(t, err)

	var got doc
	err = s.Load(&got)
	require.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(&doc{Name: "a"}))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := NewWithConfig(&Config{FilePath: path, BackupCount: 0})
	require.NoError(t, err)

	require.NoError(t, s.Save(&doc{Name: "first"}))
	require.NoError(t, s.Save(&doc{Name: "second"}))

	var got doc
	require.NoError(t, s.Load(&got))
	assert.Equal(t, "second", got.Name)
}

func TestStore_BackupsCreatedAndBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := NewWithConfig(&Config{FilePath: path, BackupCount: 2})
	require.NoError(t, err)

	// First save has nothing to back up; the rest do.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(&doc{Count: i}))
	}

	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
	assert.NotEmpty(t, matches)
}

func TestStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "data.json")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(&doc{Name: "ok"}))

	var got doc
	require.NoError(t, s.Load(&got))
	assert.Equal(t, "ok", got.Name)
}

func TestNewWithConfig_Validation(t *testing.T) {
	_, err := NewWithConfig(nil)
	assert.Error(t, err)

	_, err = NewWithConfig(&Config{FilePath: ""})
	assert.Error(t, err)
}
