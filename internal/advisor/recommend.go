package advisor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyellow/course-advisor-go/internal/genai"
	"github.com/garyellow/course-advisor-go/internal/rag"
)

// errNoRetriever is returned by a Recommender built without an index.
var errNoRetriever = errors.New("no retriever configured")

// DefaultRetrievalK is the number of catalog chunks given to the model.
const DefaultRetrievalK = 4

// DefaultCreditType is used when the caller names no credit type.
const DefaultCreditType = "any"

// AcceptOfferQuery is the retrieval query used when a student accepts an offer.
const AcceptOfferQuery = "recommend courses based on interests"

// RecommendRequest describes one recommendation.
type RecommendRequest struct {
	Query      string
	Grade      int
	Interests  []string
	CreditType string
}

// Recommender retrieves catalog context and asks the model for a
// recommendation grounded in it. The index is only ever read.
type Recommender struct {
	retriever rag.Retriever
	gen       genai.Generator
	k         int
	timeout   time.Duration
}

// NewRecommender creates a recommender. k <= 0 selects DefaultRetrievalK.
func NewRecommender(retriever rag.Retriever, gen genai.Generator, k int, timeout time.Duration) *Recommender {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &Recommender{retriever: retriever, gen: gen, k: k, timeout: timeout}
}

// Recommend retrieves the top k chunks for req.Query and generates an answer.
// An empty context is still sent to the model, which is told to say so.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) Result {
	if r.retriever == nil {
		return Failure(errNoRetriever)
	}

	results, err := r.retriever.Retrieve(ctx, req.Query, r.k)
	if err != nil {
		return Failure(fmt.Errorf("retrieve: %w", err))
	}

	creditType := strings.TrimSpace(req.CreditType)
	if creditType == "" {
		creditType = DefaultCreditType
	}

	return generate(ctx, r.gen, r.timeout, genai.Request{
		System: genai.RecommendationSystemPrompt,
		Prompt: genai.RecommendationPrompt(
			formatContext(results),
			strconv.Itoa(req.Grade),
			strings.Join(req.Interests, ", "),
			creditType,
			req.Query,
		),
		Temperature: recommendTemperature,
		Operation:   genai.OperationRecommend,
	})
}

func formatContext(results []rag.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n\n")
}
