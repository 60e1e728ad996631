package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// slowQueryThreshold logs writes slower than this.
const slowQueryThreshold = 100 * time.Millisecond

// SaveTranscript inserts or replaces userID's transcript.
func (db *DB) SaveTranscript(ctx context.Context, userID string, messages []TranscriptMessage) error {
	if messages == nil {
		messages = []TranscriptMessage{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	query := `
		INSERT INTO transcripts (user_id, messages, message_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			messages = excluded.messages,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	if _, err := db.conn.ExecContext(ctx, query, userID, string(payload), len(messages), start.Unix()); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveTranscript",
			"duration_ms", duration.Milliseconds(),
			"user_id", userID)
	}
	return nil
}

// GetTranscript returns userID's transcript, or ErrNotFound.
func (db *DB) GetTranscript(ctx context.Context, userID string) (*Transcript, error) {
	query := `SELECT messages, updated_at FROM transcripts WHERE user_id = ?`

	var payload string
	var updatedAt int64
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}

	t := &Transcript{UserID: userID, UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(payload), &t.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return t, nil
}

// DeleteTranscript removes userID's transcript. Missing rows are not an error.
func (db *DB) DeleteTranscript(ctx context.Context, userID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM transcripts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// CountTranscripts returns the number of stored transcripts.
func (db *DB) CountTranscripts(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transcripts: %w", err)
	}
	return count, nil
}
