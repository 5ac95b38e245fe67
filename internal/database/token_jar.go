package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloudshare/services/sessions"
)

var _ sessions.Jar = (*TokenJar)(nil)

// TokenJar is a sessions.Jar stored in the jar_entries table.
type TokenJar struct {
	conn *sql.DB
	now  func() time.Time
}

// NewTokenJar creates a jar over db.
func NewTokenJar(db *DB) *TokenJar {
	return &TokenJar{conn: db.Connection(), now: time.Now}
}

// Get implements sessions.Jar.
func (j *TokenJar) Get(name string) (string, bool, error) {
	var value string
	var expiresAt int64
	err := j.conn.QueryRow(
		`SELECT value, expires_at FROM jar_entries WHERE name = ?`, name,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query jar entry: %w", err)
	}

	if expiresAt != 0 && !j.now().Before(time.Unix(0, expiresAt)) {
		if _, err := j.conn.Exec(`DELETE FROM jar_entries WHERE name = ?`, name); err != nil {
			return "", false, fmt.Errorf("delete expired jar entry: %w", err)
		}
		return "", false, nil
	}
	return value, true, nil
}

// Set implements sessions.Jar.
func (j *TokenJar) Set(name, value string, expiresAt time.Time) error {
	var expires int64
	if !expiresAt.IsZero() {
		expires = expiresAt.UnixNano()
	}
	_, err := j.conn.Exec(`
		INSERT INTO jar_entries (name, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		name, value, expires, j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store jar entry: %w", err)
	}
	return nil
}

// Delete implements sessions.Jar.
func (j *TokenJar) Delete(name string) error {
	if _, err := j.conn.Exec(`DELETE FROM jar_entries WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete jar entry: %w", err)
	}
	return nil
}
