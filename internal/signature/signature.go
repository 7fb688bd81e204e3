// Package signature computes and verifies the HMAC-SHA256 signatures carried
// in the X-Webhook-Signature header of outbound webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// Header is the HTTP header that carries the payload signature.
	Header = "X-Webhook-Signature"
	// Prefix identifies the digest algorithm in the header value.
	Prefix = "sha256="
)

// Sign returns "sha256=" followed by the lowercase hex HMAC-SHA256 of payload
// keyed with secret. The same inputs always produce the same signature.
func Sign(payload []byte, secret string) string {
	return Prefix + hex.EncodeToString(digest(payload, secret))
}

// Verify reports whether signature is the valid signature of payload under
// secret. Malformed signature strings yield false.
func Verify(payload []byte, signature, secret string) bool {
	encoded, ok := strings.CutPrefix(signature, Prefix)
	if !ok || len(encoded) != sha256.Size*2 {
		return false
	}
	got, err := hex.DecodeString(encoded)
	if err != nil {
		return false
	}
	return hmac.Equal(got, digest(payload, secret))
}

func digest(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
