package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/garyellow/course-advisor-go/internal/ctxutil"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader     = "X-Request-Id"
	correlationIDHeader = "X-Correlation-Id"
	maxRequestIDLen     = 128 // longer caller ids are replaced before logging
)

// requestIDMiddleware puts a request id on the context and the response.
// A caller-supplied X-Request-Id or X-Correlation-Id is kept when it is
// short enough; otherwise a UUID is generated.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingRequestID(c.Request.Header)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func incomingRequestID(h http.Header) string {
	for _, name := range []string{requestIDHeader, correlationIDHeader} {
		if id := h.Get(name); id != "" && len(id) <= maxRequestIDLen {
			return id
		}
	}
	return uuid.NewString()
}

// securityHeaders are set on every response. The API only serves JSON, so
// nothing may be framed, sniffed or loaded from it.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"Cache-Control", "no-store"},
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}

// accessLevel picks the log level of a finished request. Server errors are
// errors, client mistakes are warnings, unknown paths and successes are
// debug noise.
func accessLevel(status int) (slog.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError, "HTTP request failed"
	case status == http.StatusNotFound:
		return slog.LevelDebug, "HTTP request not found"
	case status >= http.StatusBadRequest:
		return slog.LevelWarn, "HTTP request rejected"
	default:
		return slog.LevelDebug, "HTTP request completed"
	}
}

func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level, msg := accessLevel(status)
		log.Log(c.Request.Context(), level, msg,
			"http_method", c.Request.Method,
			"http_path", c.Request.URL.Path,
			"http_status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
