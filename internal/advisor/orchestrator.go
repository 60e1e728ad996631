// Package advisor implements the course-advising dialogue: the per-turn
// decision between elicitation and recommendation, the engines behind each
// branch, and the canned replies used when an engine fails.
package advisor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/garyellow/course-advisor-go/internal/ctxutil"
	apperrors "github.com/garyellow/course-advisor-go/internal/errors"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/metrics"
	"github.com/garyellow/course-advisor-go/internal/ratelimit"
	"github.com/garyellow/course-advisor-go/internal/sentry"
	"github.com/garyellow/course-advisor-go/internal/session"
)

// Transition names the branch a turn took.
type Transition string

const (
	TransitionAcceptOffer Transition = "accept-offer"
	TransitionCourseQuery Transition = "course-query"
	TransitionElicitation Transition = "elicitation"
	TransitionSteadyState Transition = "steady-state"
	TransitionRateLimited Transition = "rate-limited"
)

// Canned replies.
const (
	FallbackAcceptOffer = "I'm having trouble finding course recommendations right now. Could you tell me more about what subjects interest you most?"
	FallbackCourseQuery = "I'm having trouble finding course recommendations right now. Could you be more specific about what type of courses you're looking for?"
	FallbackElicitation = "I'd love to learn more about your interests. What subjects or activities do you enjoy?"
	FallbackSteadyState = "That's interesting! Tell me more about what you enjoy or what you're curious about."

	NoResultsReply   = "I couldn't find specific courses matching your criteria. Would you like to try adjusting your grade level or exploring different subject areas?"
	RateLimitedReply = "You're sending messages a little too quickly. Give me a moment and try again."

	OfferSuffix = "\n\nBased on our conversation, I've learned quite a bit about your interests. Would you like me to recommend some courses that might be perfect for you?"
)

// DefaultElicitationThreshold is the number of elicitation turns before a
// recommendation is offered.
const DefaultElicitationThreshold = 5

const noRelevantCoursesMarker = "no relevant courses found"

// Turn outcomes recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeLimited  = "limited"
	outcomeRejected = "rejected"
)

// InterestElicitor runs the elicitation dialogue.
type InterestElicitor interface {
	Converse(ctx context.Context, grade int, transcript, message string) Result
	ExtractInterests(ctx context.Context, transcript string) (string, bool, Result)
}

// CourseRecommender produces grounded course recommendations.
type CourseRecommender interface {
	Recommend(ctx context.Context, req RecommendRequest) Result
}

// TranscriptWriter persists a user's full transcript. Submit must not block
// on I/O; failures are the writer's to report.
type TranscriptWriter interface {
	Submit(ctx context.Context, userID string, messages []session.Message)
}

// Config holds the dependencies of an Advisor.
type Config struct {
	Store       *session.Store
	Elicitor    InterestElicitor
	Recommender CourseRecommender
	Transcripts TranscriptWriter        // Optional
	Limiter     *ratelimit.KeyedLimiter // Optional, nil disables per-user limits
	Lexicon     Lexicon                 // Optional, defaults to DefaultLexicon
	Logger      *logger.Logger
	Metrics     *metrics.Metrics

	ElicitationThreshold int // Defaults to DefaultElicitationThreshold
	MaxInterests         int // 0 = unlimited
}

// Advisor applies exactly one transition per accepted turn. All reads and
// writes of a user's state happen under that user's session lock.
type Advisor struct {
	store       *session.Store
	elicitor    InterestElicitor
	recommender CourseRecommender
	transcripts TranscriptWriter
	limiter     *ratelimit.KeyedLimiter
	lexicon     Lexicon
	logger      *logger.Logger
	metrics     *metrics.Metrics

	threshold    int
	maxInterests int
	now          func() time.Time
}

// New creates an Advisor.
func New(cfg Config) *Advisor {
	lexicon := cfg.Lexicon
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	threshold := cfg.ElicitationThreshold
	if threshold <= 0 {
		threshold = DefaultElicitationThreshold
	}
	return &Advisor{
		store:        cfg.Store,
		elicitor:     cfg.Elicitor,
		recommender:  cfg.Recommender,
		transcripts:  cfg.Transcripts,
		limiter:      cfg.Limiter,
		lexicon:      lexicon,
		logger:       cfg.Logger.WithModule("advisor"),
		metrics:      cfg.Metrics,
		threshold:    threshold,
		maxInterests: cfg.MaxInterests,
		now:          time.Now,
	}
}

// Reply is the answer to one turn.
type Reply struct {
	Text       string
	Transition Transition
	RetryAfter time.Duration // Set for rate-limited turns
}

// HandleTurn answers message for userID. Validation failures return a
// *errors.ValidationError and leave state untouched. Engine failures never
// surface as errors: the reply carries the transition's canned text instead.
func (a *Advisor) HandleTurn(ctx context.Context, userID, message, creditType string) (Reply, error) {
	start := a.now()
	ctx = ctxutil.WithUserID(ctx, userID)

	if strings.TrimSpace(message) == "" {
		a.metrics.RecordTurn("validation", outcomeRejected, 0)
		return Reply{}, apperrors.ErrMissingMessage
	}

	var reply Reply
	var outcome string
	err := a.store.Do(ctx, userID, func(sess *session.Session) error {
		grade, ok := sess.State.Grade()
		if !ok {
			return apperrors.ErrGradeNotSet
		}

		if ok, wait := a.limiter.Allow(userID); !ok {
			reply = Reply{
				Text:       RateLimitedReply,
				Transition: TransitionRateLimited,
				RetryAfter: wait,
			}
			outcome = outcomeLimited
			return nil
		}

		transcript := sess.Memory.Transcript()
		sess.Memory.Append(session.RoleUser, message, a.now())

		reply, outcome = a.runTurn(ctx, sess, grade, transcript, message, creditType)

		sess.Memory.Append(session.RoleAssistant, reply.Text, a.now())
		if a.transcripts != nil {
			a.transcripts.Submit(ctx, userID, sess.Memory.Messages())
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsValidation(err); ok {
			a.metrics.RecordTurn("validation", outcomeRejected, 0)
		}
		return Reply{}, err
	}

	a.metrics.RecordTurn(string(reply.Transition), outcome, a.now().Sub(start).Seconds())
	return reply, nil
}

// runTurn picks the transition for message and produces its reply.
// Priority: accept an outstanding offer, then course questions, then the
// elicitation dialogue.
func (a *Advisor) runTurn(ctx context.Context, sess *session.Session, grade int, transcript, message, creditType string) (Reply, string) {
	state := sess.State

	if state.OfferOutstanding() && a.lexicon.Match(IntentAccept, message) {
		state.ClearOffer()
		return a.recommend(ctx, sess, TransitionAcceptOffer, AcceptOfferQuery, grade, creditType)
	}

	if a.lexicon.Match(IntentCourse, message) {
		return a.recommend(ctx, sess, TransitionCourseQuery, message, grade, creditType)
	}

	transition := TransitionSteadyState
	if !state.HasInterests() || state.InterestTurns() < a.threshold {
		transition = TransitionElicitation
		state.IncrementInterestTurns()
	}
	return a.converse(ctx, sess, transition, grade, transcript, message)
}

func (a *Advisor) recommend(ctx context.Context, sess *session.Session, transition Transition, query string, grade int, creditType string) (Reply, string) {
	ctx = ctxutil.WithTransition(ctx, string(transition))

	res := a.recommender.Recommend(ctx, RecommendRequest{
		Query:      query,
		Grade:      grade,
		Interests:  sess.State.Interests(),
		CreditType: creditType,
	})
	text, outcome := a.resolve(ctx, sess.UserID, transition, res)

	if outcome == outcomeOK && strings.Contains(strings.ToLower(text), noRelevantCoursesMarker) {
		text = NoResultsReply
	}
	return Reply{Text: text, Transition: transition}, outcome
}

func (a *Advisor) converse(ctx context.Context, sess *session.Session, transition Transition, grade int, transcript, message string) (Reply, string) {
	ctx = ctxutil.WithTransition(ctx, string(transition))
	state := sess.State

	res := a.elicitor.Converse(ctx, grade, transcript, message)
	text, outcome := a.resolve(ctx, sess.UserID, transition, res)

	// The user message is already in memory; the reply is not stored yet.
	a.extractInterests(ctx, sess, sess.Memory.TranscriptWith(session.Message{
		Role:    session.RoleAssistant,
		Content: text,
	}))

	if state.InterestTurns() >= a.threshold && state.HasInterests() && !state.OfferOutstanding() {
		state.MarkOffered()
		a.metrics.RecordOffer()
		text += OfferSuffix
	}
	return Reply{Text: text, Transition: transition}, outcome
}

// extractInterests merges the interest phrase found in transcript into state.
// Failures are logged and otherwise ignored.
func (a *Advisor) extractInterests(ctx context.Context, sess *session.Session, transcript string) {
	if a.maxInterests > 0 && len(sess.State.Interests()) >= a.maxInterests {
		return
	}

	phrase, found, res := a.elicitor.ExtractInterests(ctx, transcript)
	if res.Failed() {
		a.logger.WithError(res.Reason()).WarnContext(ctx, "Interest extraction failed")
		return
	}
	if !found {
		return
	}
	if sess.State.AddInterest(phrase) {
		a.metrics.RecordInterestExtracted()
		a.logger.WithField("interest", phrase).DebugContext(ctx, "Interest extracted")
	}
}

// resolve returns the engine text, or the transition's fallback after logging
// and reporting the failure.
func (a *Advisor) resolve(ctx context.Context, userID string, transition Transition, res Result) (string, string) {
	if !res.Failed() {
		return res.Text, outcomeOK
	}

	err := apperrors.Op("advisor", string(transition), res.Reason(), fallbackFor(transition))
	a.logger.WithError(err).WithField("transition", string(transition)).WarnContext(ctx, "Generation failed, replying with fallback")
	sentry.CaptureWithTags(ctx, err, userID, map[string]string{"transition": string(transition)})
	return apperrors.UserMessage(err), outcomeFallback
}

func fallbackFor(t Transition) string {
	switch t {
	case TransitionAcceptOffer:
		return FallbackAcceptOffer
	case TransitionCourseQuery:
		return FallbackCourseQuery
	case TransitionElicitation:
		return FallbackElicitation
	default:
		return FallbackSteadyState
	}
}

// SetGrade parses raw and stores it as userID's grade. On error the stored
// grade is unchanged.
func (a *Advisor) SetGrade(ctx context.Context, userID string, raw json.RawMessage) (int, error) {
	grade, err := session.ParseGrade(raw)
	if err != nil {
		return 0, err
	}
	err = a.store.Do(ctx, userID, func(sess *session.Session) error {
		return sess.State.SetGrade(grade)
	})
	if err != nil {
		return 0, err
	}
	return grade, nil
}

// HistoryMessage is one exported memory entry.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is the exported dialogue memory of a user.
type History struct {
	Messages      []HistoryMessage `json:"messages"`
	TotalMessages int              `json:"total_messages"`
	MaxMessages   int              `json:"max_messages"`
}

// History returns userID's dialogue memory, oldest first.
func (a *Advisor) History(ctx context.Context, userID string) (History, error) {
	var h History
	err := a.store.Do(ctx, userID, func(sess *session.Session) error {
		msgs := sess.Memory.Messages()
		h.Messages = make([]HistoryMessage, 0, len(msgs))
		for _, m := range msgs {
			h.Messages = append(h.Messages, HistoryMessage{Role: m.Role.ExternalRole(), Content: m.Content})
		}
		h.TotalMessages = len(msgs)
		h.MaxMessages = sess.Memory.Window()
		return nil
	})
	return h, err
}

// Reset clears userID's state and memory.
func (a *Advisor) Reset(ctx context.Context, userID string) error {
	return a.store.Reset(ctx, userID)
}

// UserInfo is a snapshot of a user's conversation state.
type UserInfo struct {
	UserID                   string   `json:"user_id"`
	Grade                    *int     `json:"grade"`
	Interests                string   `json:"interests"` // comma-joined
	InterestTurns            int      `json:"interest_turns"`
	MessageCount             int      `json:"message_count"`
	HasOfferedRecommendation bool     `json:"has_offered_recommendation"`
}

// UserInfo returns a snapshot of userID's state.
func (a *Advisor) UserInfo(ctx context.Context, userID string) (UserInfo, error) {
	info := UserInfo{UserID: userID}
	err := a.store.Do(ctx, userID, func(sess *session.Session) error {
		if grade, ok := sess.State.Grade(); ok {
			info.Grade = &grade
		}
		info.Interests = sess.State.InterestsString()
		info.InterestTurns = sess.State.InterestTurns()
		info.MessageCount = sess.Memory.Len()
		info.HasOfferedRecommendation = sess.State.OfferOutstanding()
		return nil
	})
	return info, err
}
