package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createTranscriptsTable(ctx, db)
}

// createTranscriptsTable stores one row per user holding the full transcript
// as a JSON array, overwritten on every turn.
func createTranscriptsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS transcripts (
		user_id TEXT PRIMARY KEY,
		messages TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_updated_at ON transcripts(updated_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	return nil
}
