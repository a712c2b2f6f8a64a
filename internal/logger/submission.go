package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SubmissionEntry is the summary of one listing submission written to the
// submission log. The log is advisory; the property store is authoritative.
type SubmissionEntry struct {
	RequestID    string
	ContentType  string
	Title        string
	Location     string
	Price        string
	ContactEmail string
	Outcome      string
	Files        []SubmissionFile
	PropertyID   int64
}

// SubmissionFile records where one attachment was stored.
type SubmissionFile struct {
	OriginalName string
	StoredPath   string
	Size         int64
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (f SubmissionFile) MarshalZerologObject(e *zerolog.Event) {
	e.Str("original_name", f.OriginalName).
		Str("file_path", f.StoredPath).
		Int64("file_size", f.Size)
}

// SubmissionLog appends one JSON line per submission to a file.
type SubmissionLog struct {
	file *os.File
	zlog zerolog.Logger
}

// OpenSubmissionLog opens path for appending, creating it and its directory
// if needed.
func OpenSubmissionLog(path string) (*SubmissionLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create submission log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission log: %w", err)
	}

	return &SubmissionLog{
		file: f,
		zlog: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// Record appends entry to the log.
func (s *SubmissionLog) Record(entry SubmissionEntry) {
	if s == nil {
		return
	}

	files := zerolog.Arr()
	for _, f := range entry.Files {
		files.Object(f)
	}

	event := s.zlog.Info().
		Str("request_id", entry.RequestID).
		Str("content_type", entry.ContentType).
		Str("title", entry.Title).
		Str("location", entry.Location).
		Str("price", entry.Price).
		Str("contact_email", entry.ContactEmail).
		Str("outcome", entry.Outcome).
		Int("files_uploaded", len(entry.Files)).
		Array("files", files)
	if entry.PropertyID > 0 {
		event = event.Int64("property_id", entry.PropertyID)
	}
	event.Msg("Property submission received")
}

// Close closes the underlying file.
func (s *SubmissionLog) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
