package sound

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// id3Payload is the smallest byte slice the catalog accepts as an MP3.
var id3Payload = []byte("ID3\x04\x00\x00\x00\x00\x00\x00")

func seedSound(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+Extension), id3Payload, 0644))
}

func TestCatalog_ListSortedStems(t *testing.T) {
	dir := t.TempDir()
	seedSound(t, dir, "zulu")
	seedSound(t, dir, "alpha")
	seedSound(t, dir, "mike")
	// Non-mp3 files are not sounds.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	c := NewCatalog(dir)
	assert.Equal(t, []string{"alpha", "mike", "zulu"}, c.List())
}

func TestCatalog_ListMissingDirIsEmpty(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, c.List())
}

func TestCatalog_Exists(t *testing.T) {
	dir := t.TempDir()
	seedSound(t, dir, "hello")

	c := NewCatalog(dir)
	assert.True(t, c.Exists("hello"))
	assert.False(t, c.Exists("goodbye"))
	assert.False(t, c.Exists(""))
}

func TestCatalog_RandomEmptyCatalog(t *testing.T) {
	c := NewCatalog(t.TempDir())
	_, ok := c.Random()
	assert.False(t, ok)
}

func TestCatalog_RandomPicksExisting(t *testing.T) {
	dir := t.TempDir()
	seedSound(t, dir, "one")
	seedSound(t, dir, "two")

	c := NewCatalog(dir)
	for i := 0; i < 10; i++ {
		name, ok := c.Random()
		require.True(t, ok)
		assert.Contains(t, []string{"one", "two"}, name)
	}
}

func TestCatalog_Add(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(dir)

	require.NoError(t, c.Add("greeting", id3Payload))
	assert.True(t, c.Exists("greeting"))

	// Frame-sync header is also accepted.
	require.NoError(t, c.Add("raw", []byte{0xFF, 0xFB, 0x90, 0x00}))
	assert.True(t, c.Exists("raw"))
}

func TestCatalog_AddDuplicate(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(dir)

	require.NoError(t, c.Add("greeting", id3Payload))
	err := c.Add("greeting", id3Payload)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCatalog_AddRejectsGarbage(t *testing.T) {
	c := NewCatalog(t.TempDir())

	assert.ErrorIs(t, c.Add("bad", []byte("this is not audio")), ErrInvalidFormat)
	assert.ErrorIs(t, c.Add("tiny", []byte{0xFF}), ErrInvalidFormat)
	assert.ErrorIs(t, c.Add("", id3Payload), ErrEmptyName)
	assert.ErrorIs(t, c.Add("   ", id3Payload), ErrEmptyName)
}

func TestCatalog_AddCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sounds")
	c := NewCatalog(dir)

	require.NoError(t, c.Add("first", id3Payload))
	assert.Equal(t, []string{"first"}, c.List())
}

func TestCatalog_Path(t *testing.T) {
	c := NewCatalog("/assets")
	assert.Equal(t, filepath.Join("/assets", "bell.mp3"), c.Path("bell"))
}
