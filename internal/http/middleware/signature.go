package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/internal/bot/slack"
)

const (
	signatureHeader = "X-Slack-Signature"
	timestampHeader = "X-Slack-Request-Timestamp"

	rawBodyKey = "raw_body"
)

// VerifySlackSignature authenticates inbound Slack requests. It captures the
// raw body bytes before any parsing so the HMAC runs over the exact wire
// payload, then restores the body for downstream binding.
func VerifySlackSignature(verifier *slack.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader(signatureHeader)
		timestamp := c.GetHeader(timestampHeader)

		if !verifier.Verify(body, signature, timestamp) {
			slog.WarnContext(ctx, "rejected request with invalid slack signature",
				"path", c.Request.URL.Path,
				"has_signature", signature != "",
				"has_timestamp", timestamp != "",
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Set(rawBodyKey, body)
		c.Next()
	}
}

// RawBody returns the verified raw body captured by VerifySlackSignature.
func RawBody(c *gin.Context) ([]byte, bool) {
	raw, ok := c.Get(rawBodyKey)
	if !ok {
		return nil, false
	}
	body, ok := raw.([]byte)
	return body, ok
}
