// Package transcript persists each user's full dialogue after every turn.
// Writes go through an asynchronous Writer so a slow sink never delays a
// reply; the sink itself decides where transcripts live.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/course-advisor-go/internal/config"
	"github.com/garyellow/course-advisor-go/internal/r2client"
	"github.com/garyellow/course-advisor-go/internal/session"
	"github.com/garyellow/course-advisor-go/internal/storage"
)

// Entry is one exported message.
type Entry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Sink stores a user's transcript, replacing any previous version.
type Sink interface {
	Write(ctx context.Context, userID string, entries []Entry) error
	Name() string
	Close() error
}

// FromMessages converts dialogue memory into transcript entries.
func FromMessages(messages []session.Message) []Entry {
	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, Entry{
			Role:      m.Role.ExternalRole(),
			Content:   m.Content,
			Timestamp: formatTimestamp(m.Timestamp),
		})
	}
	return entries
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// safeName maps a user id onto characters safe for file names and object keys.
func safeName(userID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.Trim(userID, "."))
}

// Open creates the sink selected by cfg.TranscriptSink.
func Open(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.TranscriptSink {
	case config.TranscriptSinkFile, "":
		return NewFileSink(cfg.TranscriptDir)
	case config.TranscriptSinkSQLite:
		db, err := storage.New(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("open transcript database: %w", err)
		}
		return NewSQLiteSink(db), nil
	case config.TranscriptSinkR2:
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    r2client.EndpointForAccount(cfg.R2.AccountID),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("open transcript bucket: %w", err)
		}
		return NewR2Sink(client, cfg.R2.TranscriptPrefix), nil
	default:
		return nil, fmt.Errorf("unknown transcript sink %q", cfg.TranscriptSink)
	}
}
