package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session lifetimes. Remembered sessions survive browser restarts;
// transient ones expire within the working day.
const (
	RememberedSessionTTL = 30 * 24 * time.Hour
	TransientSessionTTL  = 12 * time.Hour
)

// NewSessionToken returns an opaque session identifier.
func NewSessionToken() string {
	return uuid.NewString()
}

// SessionTTL returns the session lifetime for the given remember flag.
func SessionTTL(remember bool) time.Duration {
	if remember {
		return RememberedSessionTTL
	}
	return TransientSessionTTL
}

// SignValue appends an HMAC-SHA256 signature so a cookie value can be
// authenticated before any database lookup.
func SignValue(secret, value string) string {
	return value + "." + signature(secret, value)
}

// VerifyValue checks the signature on a value produced by SignValue and
// returns the original value.
func VerifyValue(secret, signed string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(signature(secret, value))) {
		return "", false
	}
	return value, true
}

func signature(secret, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// SafeReturnPath reports whether next is acceptable as a post-login redirect
// target. Only path-relative URLs are honored; anything carrying a scheme or
// host (including protocol-relative //host forms) is rejected to prevent
// open redirects.
func SafeReturnPath(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return false
	}
	// Browsers fold backslashes into slashes, turning /\host into //host.
	if strings.Contains(next, "\\") {
		return false
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
