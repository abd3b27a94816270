package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preferences.json")
	s, err := New(path)
	require.NoError(t, err)
	return s, path
}

func TestStorage_StartsEmpty(t *testing.T) {
	s, _ := newTestStorage(t)

	_, ok := s.UserSound("u1")
	assert.False(t, ok)
	_, ok = s.ChannelSound("c1")
	assert.False(t, ok)
	_, ok = s.DefaultSound()
	assert.False(t, ok)
}

func TestStorage_SetAndGet(t *testing.T) {
	s, _ := newTestStorage(t)

	require.NoError(t, s.SetUserSound("u1", "fanfare"))
	require.NoError(t, s.SetChannelSound("c1", "bell"))
	require.NoError(t, s.SetDefaultSound("chime"))

	name, ok := s.UserSound("u1")
	require.True(t, ok)
	assert.Equal(t, "fanfare", name)

	name, ok = s.ChannelSound("c1")
	require.True(t, ok)
	assert.Equal(t, "bell", name)

	name, ok = s.DefaultSound()
	require.True(t, ok)
	assert.Equal(t, "chime", name)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestStorage(t)
	require.NoError(t, s.SetUserSound("u1", "fanfare"))
	require.NoError(t, s.SetDefaultSound("chime"))

	reopened, err := New(path)
	require.NoError(t, err)

	name, ok := reopened.UserSound("u1")
	require.True(t, ok)
	assert.Equal(t, "fanfare", name)

	name, ok = reopened.DefaultSound()
	require.True(t, ok)
	assert.Equal(t, "chime", name)
}

// A malformed preference file must not prevent startup.
func TestStorage_MalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("][ broken"), 0644))

	s, err := New(path)
	require.NoError(t, err)

	_, ok := s.DefaultSound()
	assert.False(t, ok)

	// And the file heals on the next write.
	require.NoError(t, s.SetDefaultSound("chime"))
	reopened, err := New(path)
	require.NoError(t, err)
	name, ok := reopened.DefaultSound()
	require.True(t, ok)
	assert.Equal(t, "chime", name)
}

func TestStorage_Snapshot(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.SetUserSound("u1", "fanfare"))

	snap := s.Snapshot()
	assert.Equal(t, "fanfare", snap.UserSounds["u1"])

	// Mutating the snapshot does not leak back into the store.
	snap.UserSounds["u1"] = "tampered"
	name, _ := s.UserSound("u1")
	assert.Equal(t, "fanfare", name)
}

func TestStorage_CommandHistoryBounded(t *testing.T) {
	s, _ := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandToHistory(CommandHistoryRecord{
			GuildID:  "g1",
			Command:  "ping",
			Datetime: time.Now(),
		}))
	}

	history := s.FetchCommandHistory()
	assert.Len(t, history, commandHistoryLimit)
}
