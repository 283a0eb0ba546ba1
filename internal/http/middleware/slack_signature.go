package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/standup/internal/slack"
)

const maxSlackBody = 1 << 20

// VerifySlackSignature rejects requests that were not signed with the app's
// signing secret. The body is restored so handlers can read it again.
func VerifySlackSignature(secret string) gin.HandlerFunc {
	return verifySlackSignature(secret, time.Now)
}

func verifySlackSignature(secret string, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlackBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		if len(body) > maxSlackBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}

		err = slack.VerifySignature(secret,
			c.GetHeader(slack.HeaderTimestamp),
			c.GetHeader(slack.HeaderSignature),
			body, now())
		if err != nil {
			slog.WarnContext(ctx, "rejected slack request", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
