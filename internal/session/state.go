// Package session holds per-user advising sessions: the conversation state
// driving the dialogue and the bounded message memory behind it.
package session

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	apperrors "github.com/garyellow/course-advisor-go/internal/errors"
)

// Grade bounds accepted by SetGrade.
const (
	MinGrade = 8
	MaxGrade = 12
)

// State is the mutable dialogue record of one user.
// The zero value is a valid, not-yet-onboarded state.
type State struct {
	grade            int
	gradeSet         bool
	interests        []string
	interestKeys     map[string]struct{}
	interestTurns    int
	offerOutstanding bool
}

// NewState returns an empty state.
func NewState() *State {
	return &State{interestKeys: make(map[string]struct{})}
}

// Grade returns the grade and whether it has been set.
func (s *State) Grade() (int, bool) {
	return s.grade, s.gradeSet
}

// SetGrade stores grade if it lies in [MinGrade, MaxGrade].
// On error the stored grade is unchanged.
func (s *State) SetGrade(grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return apperrors.ErrGradeRange
	}
	s.grade = grade
	s.gradeSet = true
	return nil
}

// ParseGrade converts a raw JSON grade value into an integer.
// JSON numbers are truncated toward zero; strings must hold a whole number.
// A missing or null value yields ErrGradeRequired.
func ParseGrade(raw json.RawMessage) (int, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, apperrors.ErrGradeRequired
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, apperrors.ErrGradeNotNumber
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, apperrors.ErrGradeNotNumber
		}
		return n, nil
	default:
		return 0, apperrors.ErrGradeNotNumber
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, apperrors.ErrGradeNotNumber
	}
	return int(f), nil
}

// Interests returns the stored interests in insertion order.
func (s *State) Interests() []string {
	return slices.Clone(s.interests)
}

// HasInterests reports whether any interest has been recorded.
func (s *State) HasInterests() bool {
	return len(s.interests) > 0
}

// InterestsString joins interests with ", ".
func (s *State) InterestsString() string {
	return strings.Join(s.interests, ", ")
}

// AddInterest stores interest unless an equal one (under Unicode case
// folding) is already present. Returns true when a new interest was added.
func (s *State) AddInterest(interest string) bool {
	interest = strings.TrimSpace(interest)
	if interest == "" {
		return false
	}
	if s.interestKeys == nil {
		s.interestKeys = make(map[string]struct{})
	}
	key := cases.Fold().String(interest)
	if _, ok := s.interestKeys[key]; ok {
		return false
	}
	s.interestKeys[key] = struct{}{}
	s.interests = append(s.interests, interest)
	return true
}

// InterestTurns returns the number of elicitation turns taken.
func (s *State) InterestTurns() int {
	return s.interestTurns
}

// IncrementInterestTurns counts one elicitation turn and returns the new total.
func (s *State) IncrementInterestTurns() int {
	s.interestTurns++
	return s.interestTurns
}

// OfferOutstanding reports whether a recommendation offer awaits an answer.
func (s *State) OfferOutstanding() bool {
	return s.offerOutstanding
}

// MarkOffered records that an offer was appended to a reply.
func (s *State) MarkOffered() {
	s.offerOutstanding = true
}

// ClearOffer records that the outstanding offer was accepted.
func (s *State) ClearOffer() {
	s.offerOutstanding = false
}

// Reset returns the state to its initial values.
func (s *State) Reset() {
	*s = State{interestKeys: make(map[string]struct{})}
}
