package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.TurnsTotal == nil || m.LLMTotal == nil || m.IndexBuildsTotal == nil {
		t.Fatal("core metric vectors must be initialized")
	}
	if m.SessionsActive == nil || m.TranscriptWritesTotal == nil {
		t.Fatal("session and transcript metrics must be initialized")
	}
}

func TestRecordHelpers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordTurn("elicitation", "success", 0.5)
	m.RecordTurn("elicitation", "success", 0.7)
	m.RecordTurn("course_query", "fallback", 1.2)
	m.RecordOffer()
	m.RecordIndexBuild("rebuilt", 42)
	m.RecordTranscriptWrite("file", "error")
	m.SetActiveSessions(3)
	m.RecordSessionEvicted(2)
	m.RecordSessionEvicted(0)
	m.RecordRateLimiterDrop("user")

	if got := testutil.ToFloat64(m.TurnsTotal.WithLabelValues("elicitation", "success")); got != 2 {
		t.Errorf("elicitation turns = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TurnsTotal.WithLabelValues("course_query", "fallback")); got != 1 {
		t.Errorf("course_query fallback turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OffersTotal); got != 1 {
		t.Errorf("offers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IndexChunks); got != 42 {
		t.Errorf("index chunks = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("rebuilt")); got != 1 {
		t.Errorf("rebuilt builds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TranscriptWritesTotal.WithLabelValues("file", "error")); got != 1 {
		t.Errorf("transcript errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 3 {
		t.Errorf("sessions active = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SessionsEvicted); got != 2 {
		t.Errorf("sessions evicted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("user")); got != 1 {
		t.Errorf("user drops = %v, want 1", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordTurn("x", "y", 1)
	m.RecordOffer()
	m.RecordInterestExtracted()
	m.RecordRetrieval("vector", 0.1, 4)
	m.RecordIndexBuild("loaded", 1)
	m.RecordTranscriptWrite("file", "success")
	m.RecordTranscriptDropped()
	m.SetActiveSessions(1)
	m.RecordSessionEvicted(1)
	m.RecordRateLimiterDrop("user")
	m.SetRateLimiterUsers(1)
	InitGlobal(nil)
}

func TestInitGlobal(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	InitGlobal(m)

	if LLMTotal != m.LLMTotal || LLMDuration != m.LLMDuration {
		t.Error("InitGlobal should publish LLM metrics")
	}
	if EmbeddingTotal != m.EmbeddingTotal {
		t.Error("InitGlobal should publish embedding metrics")
	}
}
