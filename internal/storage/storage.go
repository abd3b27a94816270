// /internal/storage/storage.go
package storage

import (
	"log"
	"os"
	"sync"
	"time"

	"entrychime/datastore"
)

const commandHistoryLimit int = 20

// Record is the full persisted state: the preference mapping plus a short
// command history kept for diagnostics.
type Record struct {
	ChannelSounds map[string]string      `json:"channel_sounds"`
	UserSounds    map[string]string      `json:"user_sounds"`
	DefaultSound  string                 `json:"default_sound"`
	CommandLog    []CommandHistoryRecord `json:"cmd_history,omitempty"`
}

type CommandHistoryRecord struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Datetime  time.Time `json:"datetime"`
}

type Storage struct {
	ds     *datastore.Store
	mu     sync.Mutex
	record Record
}

func emptyRecord() Record {
	return Record{
		ChannelSounds: map[string]string{},
		UserSounds:    map[string]string{},
	}
}

// New opens the preference file. Loading fails soft: a missing, unreadable
// or malformed file yields a fresh empty record and a log line, never an
// error to the caller.
func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}

	s := &Storage{ds: ds, record: emptyRecord()}

	var loaded Record
	if err := ds.Load(&loaded); err != nil {
		if os.IsNotExist(err) {
			log.Printf("[INFO] No preference file at %s, starting empty", filePath)
		} else {
			log.Printf("[WARN] Failed to load preferences from %s: %v (starting empty)", filePath, err)
		}
	} else {
		if loaded.ChannelSounds == nil {
			loaded.ChannelSounds = map[string]string{}
		}
		if loaded.UserSounds == nil {
			loaded.UserSounds = map[string]string{}
		}
		s.record = loaded
	}

	return s, nil
}

// Save persists the whole record. On failure the in-memory record is left
// unchanged so the caller can retry or report.
func (s *Storage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds.Save(&s.record)
}

// SetUserSound maps a user to a sound and persists the record. A failed
// save rolls the in-memory mapping back.
func (s *Storage) SetUserSound(userID, soundName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.record.UserSounds[userID]
	s.record.UserSounds[userID] = soundName
	if err := s.ds.Save(&s.record); err != nil {
		if had {
			s.record.UserSounds[userID] = prev
		} else {
			delete(s.record.UserSounds, userID)
		}
		return err
	}
	return nil
}

// SetChannelSound maps a channel to a sound and persists the record. A
// failed save rolls the in-memory mapping back.
func (s *Storage) SetChannelSound(channelID, soundName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.record.ChannelSounds[channelID]
	s.record.ChannelSounds[channelID] = soundName
	if err := s.ds.Save(&s.record); err != nil {
		if had {
			s.record.ChannelSounds[channelID] = prev
		} else {
			delete(s.record.ChannelSounds, channelID)
		}
		return err
	}
	return nil
}

// SetDefaultSound sets the process-wide fallback sound and persists the
// record. A failed save rolls the in-memory value back.
func (s *Storage) SetDefaultSound(soundName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.record.DefaultSound
	s.record.DefaultSound = soundName
	if err := s.ds.Save(&s.record); err != nil {
		s.record.DefaultSound = prev
		return err
	}
	return nil
}

// UserSound returns the sound mapped to a user, if any.
func (s *Storage) UserSound(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.record.UserSounds[userID]
	return name, ok
}

// ChannelSound returns the sound mapped to a channel, if any.
func (s *Storage) ChannelSound(channelID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.record.ChannelSounds[channelID]
	return name, ok
}

// DefaultSound returns the fallback sound, if set.
func (s *Storage) DefaultSound() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.DefaultSound, s.record.DefaultSound != ""
}

// Snapshot returns a deep copy of the record for diagnostic display.
func (s *Storage) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Record{
		ChannelSounds: make(map[string]string, len(s.record.ChannelSounds)),
		UserSounds:    make(map[string]string, len(s.record.UserSounds)),
		DefaultSound:  s.record.DefaultSound,
		CommandLog:    append([]CommandHistoryRecord(nil), s.record.CommandLog...),
	}
	for k, v := range s.record.ChannelSounds {
		out.ChannelSounds[k] = v
	}
	for k, v := range s.record.UserSounds {
		out.UserSounds[k] = v
	}
	return out
}

// AppendCommandToHistory records a command invocation, keeping the log bounded.
func (s *Storage) AppendCommandToHistory(rec CommandHistoryRecord) error {
	s.mu.Lock()
	s.record.CommandLog = append(s.record.CommandLog, rec)
	if len(s.record.CommandLog) > commandHistoryLimit {
		s.record.CommandLog = s.record.CommandLog[len(s.record.CommandLog)-commandHistoryLimit:]
	}
	s.mu.Unlock()
	return s.Save()
}

// FetchCommandHistory returns the recorded command invocations.
func (s *Storage) FetchCommandHistory() []CommandHistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CommandHistoryRecord(nil), s.record.CommandLog...)
}
