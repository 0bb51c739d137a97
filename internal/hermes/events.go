package hermes

import "time"

const (
	// SubjectSamplesImported is published after a dataset import replaces the store.
	SubjectSamplesImported = "textcad.samples.imported"
	// SubjectSamplesValidated is published after the API validates a dataset.
	SubjectSamplesValidated = "textcad.samples.validated"
)

// Publisher is the part of Client the importer and API need.
type Publisher interface {
	Publish(subject string, data any) error
}

// ImportedEvent summarizes one dataset import.
type ImportedEvent struct {
	ImportID   string    `json:"import_id"`
	Source     string    `json:"source"`
	Digest     string    `json:"digest"`
	Total      int       `json:"total"`
	Valid      int       `json:"valid"`
	Invalid    int       `json:"invalid"`
	Unparsable int       `json:"unparsable"`
	Duplicates int       `json:"duplicates"`
	DryRun     bool      `json:"dry_run"`
	Timestamp  time.Time `json:"timestamp"`
}

// ValidatedEvent summarizes one validation request.
type ValidatedEvent struct {
	RequestID  string    `json:"request_id"`
	Valid      int       `json:"valid"`
	Invalid    int       `json:"invalid"`
	Unparsable int       `json:"unparsable"`
	OK         bool      `json:"ok"`
	Timestamp  time.Time `json:"timestamp"`
}
