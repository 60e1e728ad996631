package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/garyellow/course-advisor-go/internal/config"
	"github.com/gin-gonic/gin"
)

const metricsRealm = `Basic realm="metrics"`

// metricsAuthMiddleware guards the scrape endpoint with basic auth. It is a
// pass-through when auth is disabled.
func metricsAuthMiddleware(cfg config.MetricsConfig) gin.HandlerFunc {
	if !cfg.AuthEnabled {
		return func(c *gin.Context) { c.Next() }
	}

	wantUser := sha256.Sum256([]byte(cfg.Username))
	wantPass := sha256.Sum256([]byte(cfg.Password))

	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if ok {
			gotUser := sha256.Sum256([]byte(user))
			gotPass := sha256.Sum256([]byte(pass))
			// Compare both digests so a wrong user costs as much as a wrong password.
			userOK := subtle.ConstantTimeCompare(gotUser[:], wantUser[:])
			passOK := subtle.ConstantTimeCompare(gotPass[:], wantPass[:])
			if userOK&passOK == 1 {
				c.Next()
				return
			}
		}

		c.Header("WWW-Authenticate", metricsRealm)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}
