package transcript

import (
	"context"

	"github.com/garyellow/course-advisor-go/internal/storage"
)

// SQLiteSink keeps one row per user in the transcripts table.
type SQLiteSink struct {
	db *storage.DB
}

// NewSQLiteSink wraps db. The sink owns db and closes it.
func NewSQLiteSink(db *storage.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// Write upserts userID's transcript.
func (s *SQLiteSink) Write(ctx context.Context, userID string, entries []Entry) error {
	msgs := make([]storage.TranscriptMessage, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, storage.TranscriptMessage(e))
	}
	return s.db.SaveTranscript(ctx, userID, msgs)
}

// Name implements Sink.
func (s *SQLiteSink) Name() string { return "sqlite" }

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *SQLiteSink) Ping(ctx context.Context) error { return s.db.Ping(ctx) }
