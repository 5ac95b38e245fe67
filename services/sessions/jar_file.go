package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// JarFileName is the file the FileJar persists to inside its directory.
const JarFileName = "session.json"

var errCorruptJar = errors.New("corrupt session file")

// FileJar persists entries as JSON in a single file on an afero filesystem.
type FileJar struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	now  func() time.Time
}

// NewFileJar creates a jar stored at dir/session.json on fs.
func NewFileJar(fs afero.Fs, dir string) (*FileJar, error) {
	if dir == "" {
		return nil, ErrStorageDirRequired
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileJar{
		fs:   fs,
		path: filepath.Join(dir, JarFileName),
		now:  time.Now,
	}, nil
}

// Path returns the location of the jar file.
func (j *FileJar) Path() string {
	return j.path
}

// Get implements Jar.
func (j *FileJar) Get(name string) (string, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.loadLocked()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[name]
	if !ok || entry.expired(j.now()) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set implements Jar.
func (j *FileJar) Set(name, value string, expiresAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.loadForWriteLocked()
	if err != nil {
		return err
	}
	entries[name] = jarEntry{Value: value, ExpiresAt: expiresAt.UTC()}
	return j.saveLocked(entries)
}

// Delete implements Jar.
func (j *FileJar) Delete(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.loadForWriteLocked()
	if err != nil {
		return err
	}
	if _, ok := entries[name]; !ok {
		return j.saveLocked(entries)
	}
	delete(entries, name)
	return j.saveLocked(entries)
}

// loadLocked reads the jar file, dropping expired entries. Must be called with mu held.
func (j *FileJar) loadLocked() (map[string]jarEntry, error) {
	entries := make(map[string]jarEntry)

	file, err := j.fs.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil // No jar yet, start fresh
	}
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	var stored map[string]jarEntry
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptJar, err)
	}

	now := j.now()
	for name, entry := range stored {
		if entry.Value == "" || entry.expired(now) {
			continue
		}
		entries[name] = entry
	}
	return entries, nil
}

// loadForWriteLocked is loadLocked for writers: a corrupt file is dropped so
// the write replaces it. Must be called with mu held.
func (j *FileJar) loadForWriteLocked() (map[string]jarEntry, error) {
	entries, err := j.loadLocked()
	if errors.Is(err, errCorruptJar) {
		log.Printf("[session] discarding %s: %v", j.path, err)
		return make(map[string]jarEntry), nil
	}
	return entries, err
}

// saveLocked writes entries to the jar file. Must be called with mu held.
func (j *FileJar) saveLocked(entries map[string]jarEntry) error {
	if len(entries) == 0 {
		if err := j.fs.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	// Write to temp file first, then rename (atomic write)
	tmp := j.path + ".tmp"
	file, err := j.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create session temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		file.Close()
		_ = j.fs.Remove(tmp)
		return fmt.Errorf("encode session file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = j.fs.Remove(tmp)
		return fmt.Errorf("sync session file: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = j.fs.Remove(tmp)
		return fmt.Errorf("close session temp file: %w", err)
	}

	if err := j.fs.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
