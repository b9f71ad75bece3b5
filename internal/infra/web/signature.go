package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature checks the provider's HMAC-SHA256 signature over
// the raw request body. The caller is trusted only after this passes.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
