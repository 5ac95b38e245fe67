package sessions

import (
	"sync"
	"time"
)

// Jar is the durable client-side store that keeps the bearer token across
// process restarts. It behaves like a cookie jar: each entry carries an
// expiry and expired entries read as absent.
type Jar interface {
	// Get returns the value stored under name. ok is false when the entry is
	// missing or expired.
	Get(name string) (value string, ok bool, err error)

	// Set stores value under name until expiresAt, replacing any previous entry.
	Set(name, value string, expiresAt time.Time) error

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(name string) error
}

type jarEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e jarEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// MemoryJar keeps entries for the lifetime of the process only.
type MemoryJar struct {
	mu      sync.Mutex
	entries map[string]jarEntry
	now     func() time.Time
}

// NewMemoryJar creates an empty in-memory jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{
		entries: make(map[string]jarEntry),
		now:     time.Now,
	}
}

// Get implements Jar.
func (j *MemoryJar) Get(name string) (string, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[name]
	if !ok {
		return "", false, nil
	}
	if entry.expired(j.now()) {
		delete(j.entries, name)
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set implements Jar.
func (j *MemoryJar) Set(name, value string, expiresAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[name] = jarEntry{Value: value, ExpiresAt: expiresAt}
	return nil
}

// Delete implements Jar.
func (j *MemoryJar) Delete(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.entries, name)
	return nil
}
