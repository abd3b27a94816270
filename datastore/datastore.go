// Package datastore persists a single JSON document on disk.
//
// Writes are atomic: the document is marshalled to a temporary file, synced,
// and renamed over the old one, so readers only ever see a complete old or
// new file. A small number of timestamped backups is kept alongside.
package datastore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Config holds configuration options for the Store.
type Config struct {
	FilePath    string
	BackupCount int // number of backup files to keep (0 = no backups)
}

// DefaultConfig returns a default configuration.
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:    filePath,
		BackupCount: 3,
	}
}

// Store reads and writes one JSON document at a fixed path.
type Store struct {
	config *Config
}

// New creates a Store with default configuration.
func New(filePath string) (*Store, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig creates a Store with custom configuration.
func NewWithConfig(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %v", err)
	}

	return &Store{config: config}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.config.FilePath
}

// Load unmarshals the document into v. The caller distinguishes a missing
// file (os.IsNotExist) from a corrupt one.
func (s *Store) Load(v any) error {
	data, err := os.ReadFile(s.config.FilePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON format: %v", err)
	}
	return nil
}

// Save marshals v and atomically replaces the document on disk.
func (s *Store) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}

	if s.config.BackupCount > 0 {
		// Backup failure is not fatal; the atomic write still protects the live file.
		_ = s.createBackup()
	}

	return s.writeFileAtomic(data)
}

// writeFileAtomic performs atomic file write using temporary file and rename.
func (s *Store) writeFileAtomic(data []byte) error {
	tmpFile := s.config.FilePath + ".tmp"

	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write to temp file: %v", err)
	}

	file, err := os.OpenFile(tmpFile, os.O_RDWR, 0644)
	if err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to open temp file for sync: %v", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %v", err)
	}
	file.Close()

	if err := os.Rename(tmpFile, s.config.FilePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %v", err)
	}

	return nil
}

// createBackup creates a timestamped backup of the current file.
func (s *Store) createBackup() error {
	if _, err := os.Stat(s.config.FilePath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFile := fmt.Sprintf("%s.backup.%s", s.config.FilePath, timestamp)

	src, err := os.Open(s.config.FilePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(backupFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	s.cleanupOldBackups()
	return nil
}

// cleanupOldBackups removes old backup files beyond the configured limit.
func (s *Store) cleanupOldBackups() {
	pattern := s.config.FilePath + ".backup.*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	if len(matches) <= s.config.BackupCount {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	var files []fileInfo
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil {
			files = append(files, fileInfo{match, info.ModTime()})
		}
	}

	// Sort by modification time (oldest first)
	for i := 0; i < len(files)-1; i++ {
		for j := i + 1; j < len(files); j++ {
			if files[i].modTime.After(files[j].modTime) {
				files[i], files[j] = files[j], files[i]
			}
		}
	}

	toRemove := len(files) - s.config.BackupCount
	for i := 0; i < toRemove; i++ {
		os.Remove(files[i].path)
	}
}
