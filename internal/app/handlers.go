package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/garyellow/course-advisor-go/internal/advisor"
	apperrors "github.com/garyellow/course-advisor-go/internal/errors"
	"github.com/garyellow/course-advisor-go/internal/sentry"
	"github.com/gin-gonic/gin"
)

var errInvalidBody = apperrors.NewValidationError(apperrors.CodeInvalidRequest, "body", "Request body must be a JSON object")

type chatRequest struct {
	Message    string `json:"message"`
	CreditType string `json:"credit_type"`
}

type gradeRequest struct {
	Grade json.RawMessage `json:"grade"`
}

// userID returns the principal served by this instance.
func (a *Application) userID() string {
	return a.cfg.UserID
}

func (a *Application) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, errInvalidBody)
		return
	}

	reply, err := a.advisor.HandleTurn(c.Request.Context(), a.userID(), req.Message, req.CreditType)
	if err != nil {
		a.respondError(c, err)
		return
	}

	if reply.Transition == advisor.TransitionRateLimited {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(reply.RetryAfter)))
		c.JSON(http.StatusTooManyRequests, gin.H{"response": reply.Text})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply.Text})
}

func (a *Application) handleSetGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, errInvalidBody)
		return
	}

	grade, err := a.advisor.SetGrade(c.Request.Context(), a.userID(), req.Grade)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Grade set to %d", grade)})
}

func (a *Application) handleHistory(c *gin.Context) {
	history, err := a.advisor.History(c.Request.Context(), a.userID())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (a *Application) handleClearHistory(c *gin.Context) {
	if err := a.advisor.Reset(c.Request.Context(), a.userID()); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared successfully"})
}

func (a *Application) handleUserInfo(c *gin.Context) {
	info, err := a.advisor.UserInfo(c.Request.Context(), a.userID())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// respondError maps validation errors to 400 with their user-facing message.
// Anything else is unexpected and reported.
func (a *Application) respondError(c *gin.Context, err error) {
	if v, ok := apperrors.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message})
		return
	}

	ctx := c.Request.Context()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.logger.WithError(err).DebugContext(ctx, "Request abandoned")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request timed out, please try again."})
		return
	}

	a.logger.WithError(err).ErrorContext(ctx, "Request failed")
	sentry.CaptureWithTags(ctx, err, a.userID(), map[string]string{"route": c.FullPath()})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again."})
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	return max(secs, 1)
}
