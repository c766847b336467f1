package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/gorilla/securecookie"
)

// 32 random bytes, 256 bits of entropy per token.
const csrfTokenBytes = 32

// IssueToken returns the session's anti-forgery token, generating one
// lazily on first use. Repeated calls within a session return the same
// token, so forms open in several tabs all stay valid.
func IssueToken(sess *SessionState) (string, error) {
	if sess.CSRFToken != "" {
		return sess.CSRFToken, nil
	}
	raw := securecookie.GenerateRandomKey(csrfTokenBytes)
	if raw == nil {
		return "", errors.New("csrf: random source unavailable")
	}
	sess.CSRFToken = hex.EncodeToString(raw)
	return sess.CSRFToken, nil
}

// VerifyToken reports whether the submitted token matches the session's
// stored token. The comparison is constant time; a session without a
// token never verifies.
func VerifyToken(sess *SessionState, submitted string) bool {
	if sess == nil || sess.CSRFToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(submitted)) == 1
}
