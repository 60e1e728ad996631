package rag

import (
	"context"
	"hash/fnv"
	"io"
	"math"
	"sync/atomic"
	"testing"

	"github.com/garyellow/course-advisor-go/internal/catalog"
	"github.com/garyellow/course-advisor-go/internal/logger"
)

const fakeDims = 64

// fakeEmbedder hashes lowercase words into a fixed-size bag-of-words vector.
// Texts sharing words end up close, which is enough to rank test courses.
type fakeEmbedder struct {
	calls atomic.Int64
	err   error
}

func (f *fakeEmbedder) embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, fakeDims+1)
	vec[fakeDims] = 0.1
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%fakeDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

const testCatalogJSON = `[
	{"courseId": "ROB101", "title": "Introduction to Robotics", "description": "Build and program robots using sensors and motors.", "subjects": ["Engineering", "Technology"], "grades": [9, 10, 11, 12]},
	{"courseId": "ART200", "title": "Studio Painting", "description": "Explore watercolor and oil painting techniques.", "subjects": ["Art"], "grades": [10, 11, 12]},
	{"courseId": "HIS300", "title": "World History", "description": "Survey of ancient civilizations and empires.", "subjects": "History, Social Studies", "grades": [11, 12]}
]`

func testCatalog(tb testing.TB, data string) *catalog.Catalog {
	tb.Helper()
	cat, err := catalog.Parse([]byte(data))
	if err != nil {
		tb.Fatalf("catalog.Parse() error = %v", err)
	}
	return cat
}
