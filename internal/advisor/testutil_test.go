package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/garyellow/course-advisor-go/internal/genai"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/rag"
	"github.com/garyellow/course-advisor-go/internal/session"
)

// scriptedGenerator answers each operation with its own function and records
// the requests it saw.
type scriptedGenerator struct {
	mu       sync.Mutex
	handlers map[genai.Operation]func(genai.Request) (string, error)
	requests []genai.Request
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{handlers: make(map[genai.Operation]func(genai.Request) (string, error))}
}

func (g *scriptedGenerator) on(op genai.Operation, fn func(genai.Request) (string, error)) *scriptedGenerator {
	g.handlers[op] = fn
	return g
}

func (g *scriptedGenerator) reply(op genai.Operation, text string) *scriptedGenerator {
	return g.on(op, func(genai.Request) (string, error) { return text, nil })
}

func (g *scriptedGenerator) Generate(ctx context.Context, req genai.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	fn := g.handlers[req.Operation]
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn == nil {
		return "", errUnscripted
	}
	return fn(req)
}

func (g *scriptedGenerator) Close() error            { return nil }
func (g *scriptedGenerator) Provider() genai.Provider { return genai.ProviderGemini }

func (g *scriptedGenerator) calls(op genai.Operation) []genai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []genai.Request
	for _, r := range g.requests {
		if r.Operation == op {
			out = append(out, r)
		}
	}
	return out
}

var errUnscripted = errors.New("unscripted operation")

// fakeRetriever returns fixed results and records queries.
type fakeRetriever struct {
	mu      sync.Mutex
	results []rag.SearchResult
	err     error
	queries []string
	ks      []int
}

func (r *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]rag.SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	r.ks = append(r.ks, k)
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

func (r *fakeRetriever) lastQuery() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queries) == 0 {
		return ""
	}
	return r.queries[len(r.queries)-1]
}

// recordingTranscripts keeps the last transcript submitted per user.
type recordingTranscripts struct {
	mu      sync.Mutex
	last    map[string][]session.Message
	submits int
}

func (r *recordingTranscripts) Submit(_ context.Context, userID string, messages []session.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		r.last = make(map[string][]session.Message)
	}
	r.last[userID] = messages
	r.submits++
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

// robotCatalog is what the fake retriever hands back for every query.
var robotCatalog = []rag.SearchResult{
	{ChunkID: "ROB101#0", DocumentID: "ROB101", Content: "Title: Intro to Robotics\nGrade: 9, 10"},
	{ChunkID: "CS110#0", DocumentID: "CS110", Content: "Title: Programming Fundamentals\nGrade: 9, 10, 11"},
}

type testAdvisor struct {
	*Advisor
	store       *session.Store
	gen         *scriptedGenerator
	retriever   *fakeRetriever
	transcripts *recordingTranscripts
}

func newTestAdvisor(t *testing.T, gen *scriptedGenerator, mutate func(*Config)) *testAdvisor {
	t.Helper()

	store := session.NewStore(session.StoreConfig{})
	t.Cleanup(store.Stop)

	retriever := &fakeRetriever{results: robotCatalog}
	transcripts := &recordingTranscripts{}
	cfg := Config{
		Store:       store,
		Elicitor:    NewInterestEngine(gen, 0),
		Recommender: NewRecommender(retriever, gen, 0, 0),
		Transcripts: transcripts,
		Logger:      testLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testAdvisor{
		Advisor:     New(cfg),
		store:       store,
		gen:         gen,
		retriever:   retriever,
		transcripts: transcripts,
	}
}

func (ta *testAdvisor) onboard(t *testing.T, userID string, grade int) {
	t.Helper()
	raw, _ := json.Marshal(grade)
	if _, err := ta.SetGrade(context.Background(), userID, raw); err != nil {
		t.Fatalf("SetGrade(%d) error = %v", grade, err)
	}
}

// extractWhenMentioned answers extraction with phrase once the transcript
// contains keyword, and with the no-interests sentinel before that.
func extractWhenMentioned(keyword, phrase string) func(genai.Request) (string, error) {
	return func(req genai.Request) (string, error) {
		if strings.Contains(strings.ToLower(req.Prompt), keyword) {
			return phrase, nil
		}
		return "No clear interests yet.", nil
	}
}
