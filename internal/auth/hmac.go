// Package auth authenticates trade requests signed with a shared secret.
//
// A caller signs a request by computing HMAC-SHA256 over the raw request
// body followed by the X-Timestamp header value, and sends the lowercase hex
// digest in X-Sign. The timestamp is bound into the digest but its recency is
// not checked, so a captured request stays valid for as long as the secret
// does.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of body||timestamp.
func Sign(secret, body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the digest Sign would produce for the
// same inputs. It never panics: an empty secret, timestamp or signature, a
// signature of the wrong length, or one that is not lowercase hex all yield
// false.
func Verify(body []byte, timestamp, signature string, secret []byte) bool {
	if len(secret) == 0 || timestamp == "" || signature == "" {
		return false
	}
	expected := Sign(secret, body, timestamp)
	return hmac.Equal([]byte(expected), []byte(signature))
}
