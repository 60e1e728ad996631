package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorAction is what the caller should do after a provider error.
type ErrorAction int

const (
	// ActionRetry repeats the call on the same model after a backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next generator in the chain.
	ActionFallback
	// ActionFail gives up on the provider.
	ActionFail
)

var actionNames = [...]string{
	ActionRetry:    "retry",
	ActionFallback: "fallback",
	ActionFail:     "fail",
}

func (a ErrorAction) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// LLMError carries the provider and HTTP status of a failed call.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	Retryable  bool
	RetryAfter time.Duration // zero when the provider sent no hint
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (status: %d)", e.Err, e.StatusCode)
	}
	return e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and status to err. A zero status means the
// call failed before a response arrived.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	e := &LLMError{Err: err, StatusCode: statusCode, Provider: provider}
	e.Retryable = ClassifyError(e) == ActionRetry
	return e
}

// messageRules classify errors that carry no status code. Earlier rules win,
// so quota wording beats the generic rate-limit wording it often contains.
var messageRules = []struct {
	action  ErrorAction
	phrases []string
}{
	{ActionFallback, []string{"quota", "daily limit", "monthly limit", "billing"}},
	{ActionRetry, []string{"rate limit", "too many", "resource_exhausted", "429"}},
	{ActionRetry, []string{
		"unavailable", "overloaded", "capacity", "internal server error",
		"bad gateway", "gateway timeout", "500", "502", "503", "504",
	}},
	{ActionRetry, []string{"timeout", "deadline", "connection", "408", "409"}},
	{ActionFail, []string{
		"invalid", "malformed", "bad request", "unauthorized", "unauthenticated",
		"forbidden", "permission denied", "not found", "unprocessable",
		"400", "401", "403", "404", "422",
	}},
}

// ClassifyError decides how to react to a provider error. Cancellation
// fails, a deadline is retried, a known HTTP status decides by status and
// anything else is matched against well-known message phrases. Unrecognized
// errors are retried.
func ClassifyError(err error) ErrorAction {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ActionFail
	case errors.Is(err, context.DeadlineExceeded):
		return ActionRetry
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(msg, phrase) {
				return rule.action
			}
		}
	}
	return ActionRetry
}

func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code >= 500:
		return ActionRetry
	case code >= 400:
		return ActionFail
	default:
		return ActionRetry
	}
}

// ParseRetryAfter reads the wait a provider asked for. It prefers
// retry-after-ms, then Retry-After as seconds or an HTTP date, then Groq's
// x-ratelimit-reset-tokens duration. It returns zero when none parse.
func ParseRetryAfter(h http.Header) time.Duration {
	if ms, err := strconv.Atoi(h.Get("retry-after-ms")); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	if v := h.Get("retry-after"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			return max(time.Until(at), 0)
		}
	}

	if d, err := time.ParseDuration(h.Get("x-ratelimit-reset-tokens")); err == nil && d > 0 {
		return d
	}
	return 0
}

func retryAfter(err error) time.Duration {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return 0
}
