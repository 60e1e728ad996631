package storage

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found in the database
	ErrNotFound = errors.New("resource not found")
)

// TranscriptMessage is one stored transcript entry.
type TranscriptMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Transcript is a user's stored dialogue.
type Transcript struct {
	UserID    string
	Messages  []TranscriptMessage
	UpdatedAt int64 // Unix seconds
}
