package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const sigPrefix = "sha256="

// SignHMAC returns the X-Signature value for body: "sha256=" followed by the
// lowercase hex HMAC-SHA256 under secret.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return sigPrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a value produced by SignHMAC. Receivers can use it to
// authenticate notifications.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	raw, ok := strings.CutPrefix(provided, sigPrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(raw)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}
