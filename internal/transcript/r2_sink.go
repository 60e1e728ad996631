package transcript

import (
	"context"
	"path"
	"strings"
)

// objectPutter is the part of r2client.Client the sink needs.
type objectPutter interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
	Ping(ctx context.Context) error
}

// R2Sink uploads each transcript as a zstd-compressed JSON object at
// {prefix}/{user}.json.zst.
type R2Sink struct {
	client objectPutter
	prefix string
}

// NewR2Sink creates a sink writing under prefix (default "transcripts").
func NewR2Sink(client objectPutter, prefix string) *R2Sink {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "transcripts"
	}
	return &R2Sink{client: client, prefix: prefix}
}

// Key returns the object key of userID's transcript.
func (s *R2Sink) Key(userID string) string {
	return path.Join(s.prefix, safeName(userID)+".json.zst")
}

// Write uploads the transcript, replacing the previous object.
func (s *R2Sink) Write(ctx context.Context, userID string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	_, err := s.client.PutJSON(ctx, s.Key(userID), entries)
	return err
}

// Ping checks that the bucket is reachable.
func (s *R2Sink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

// Name implements Sink.
func (s *R2Sink) Name() string { return "r2" }

// Close implements Sink.
func (s *R2Sink) Close() error { return nil }
