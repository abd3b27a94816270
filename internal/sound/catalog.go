// /internal/sound/catalog.go
package sound

import (
	"bytes"
	"errors"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the only audio container the catalog accepts.
const Extension = ".mp3"

var (
	ErrAlreadyExists = errors.New("a sound with that name already exists")
	ErrInvalidFormat = errors.New("file is not a recognizable mp3")
	ErrEmptyName     = errors.New("sound name is empty")
)

// Catalog lists and stores the greeting clips of the asset directory.
// A sound name is the file stem; the file on disk is <name>.mp3.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the sound names in lexical order. A missing or unreadable
// directory yields an empty list, never an error.
func (c *Catalog) List() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		log.Printf("[WARN] Cannot read sounds directory %s: %v", c.dir, err)
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		}
	}
	sort.Strings(names)
	return names
}

// Random picks one sound uniformly, or reports none for an empty catalog.
func (c *Catalog) Random() (string, bool) {
	names := c.List()
	if len(names) == 0 {
		return "", false
	}
	return names[rand.Intn(len(names))], true
}

// Exists reports whether a sound of that name is present.
func (c *Catalog) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(c.Path(name))
	return err == nil
}

// Path returns the asset path for a sound name.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, name+Extension)
}

// Add stores a new sound. Existing sounds are never overwritten and the
// payload must look like an MP3 container.
func (c *Catalog) Add(name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !looksLikeMP3(data) {
		return ErrInvalidFormat
	}
	if c.Exists(name) {
		return ErrAlreadyExists
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	// O_EXCL closes the race between the Exists check and the write.
	f, err := os.OpenFile(c.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyExists
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(c.Path(name))
		return err
	}
	return f.Close()
}

// looksLikeMP3 accepts an ID3v2 tag or a bare MPEG frame sync.
func looksLikeMP3(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
