package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func digest(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload returns the hex encoded HMAC-SHA256 of body.
func SignPayload(secret string, body []byte) string {
	return hex.EncodeToString(digest([]byte(secret), body))
}

// VerifyPayload reports whether signature matches body. An empty secret never verifies.
func VerifyPayload(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := SignPayload(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
