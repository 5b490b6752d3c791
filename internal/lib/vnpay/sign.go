package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Sign computes the lowercase hex HMAC-SHA512 digest of message under
// secret. The result is always 128 hex characters.
func Sign(secret, message string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether candidate is a valid digest of message
// under secret. Comparison is case-insensitive and constant-time with
// respect to the digest bytes.
//
// Any malformed candidate (wrong length, non-hex) verifies as false; this
// function fails closed and never panics or errors.
func VerifySignature(secret, message, candidate string) bool {
	want, err := hex.DecodeString(Sign(secret, message))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(candidate))
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
