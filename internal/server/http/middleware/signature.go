package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

const (
	signatureHeader  = "X-Signature"
	maxSignedPayload = 1 << 20
)

// SignatureRequired verifies the hex HMAC-SHA256 of the raw body sent in X-Signature.
// The body is restored for the next handler.
func SignatureRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignedPayload))
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		_ = c.Request.Body.Close()

		if !pkgAuth.VerifyPayload(secret, body, c.GetHeader(signatureHeader)) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
