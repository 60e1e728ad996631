package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes {dir}/{user}_chat.json as 4-space indented JSON.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "chat_logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Path returns the file holding userID's transcript.
func (s *FileSink) Path(userID string) string {
	return filepath.Join(s.dir, safeName(userID)+"_chat.json")
}

// Write replaces the transcript file atomically via a temp file and rename.
func (s *FileSink) Write(ctx context.Context, userID string, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".transcript-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(userID)); err != nil {
		return fmt.Errorf("replace transcript: %w", err)
	}
	return nil
}

// Name implements Sink.
func (s *FileSink) Name() string { return "file" }

// Close implements Sink.
func (s *FileSink) Close() error { return nil }
