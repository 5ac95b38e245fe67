package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp decodes the backend's date-times, which may or may not carry a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// FileRecord represents a stored file as reported by the backend.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	Username     string    `json:"username"`
	IsPublic     bool      `json:"isPublic"`
	FileLocation string    `json:"fileLocation,omitempty"`
	UploadAt     Timestamp `json:"uploadAt"`
}

// FileListing is the result of listing the caller's files.
type FileListing struct {
	Files            []FileRecord `json:"files"`
	RemainingCredits *UserCredit  `json:"remainingCredits,omitempty"`
}

// UnmarshalJSON accepts either a bare array of records or the
// {files, remainingCredits} object the backend returns.
func (l *FileListing) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var files []FileRecord
		if err := json.Unmarshal(data, &files); err != nil {
			return err
		}
		*l = FileListing{Files: files}
		return nil
	}

	type listingAlias FileListing // prevent recursion
	var alias listingAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*l = FileListing(alias)
	return nil
}

// UploadResult is the body of a successful upload.
type UploadResult struct {
	Files            []FileRecord `json:"files"`
	RemainingCredits *UserCredit  `json:"remainingCredits,omitempty"`
}

// Download describes a completed file download.
type Download struct {
	FileID      string
	Filename    string
	ContentType string
	Extension   string
	Bytes       int64
}
