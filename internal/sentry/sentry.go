// Package sentry reports turns that fell back to canned replies, and
// handler failures, to Sentry.
package sentry

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
)

// ErrInvalidSampleRate is returned for sample rates outside [0, 1].
var ErrInvalidSampleRate = errors.New("sentry sample rate must be within [0, 1]")

// Config selects the project and sampling. An empty DSN disables reporting.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64 // 0 means 1
	TracesSampleRate float64 // 0 disables tracing
	Debug            bool

	beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

func (c Config) validate() error {
	for _, rate := range []float64{c.SampleRate, c.TracesSampleRate} {
		if rate < 0 || rate > 1 {
			return ErrInvalidSampleRate
		}
	}
	return nil
}

// Initialize installs the global Sentry client. It does nothing when the
// DSN is empty.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		BeforeSend:       cfg.beforeSend,
	})
}

// Flush waits up to timeout for queued events and reports whether all
// were sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is installed.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureWithTags reports err with tags and, when userID is set, the user.
// It uses the request hub the gin middleware put on ctx when there is one.
func CaptureWithTags(ctx context.Context, err error, userID string, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
