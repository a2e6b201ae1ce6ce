// Package csrf implements double-submit CSRF protection bound to a cookie.
//
// The cookie value is "token|mac" where mac is an HMAC-SHA256 of the token
// under the configured secret. Because the client cannot produce a valid mac
// for an arbitrary token, a forged cookie is rejected before the submitted
// value is even considered. State-changing actions must present the token
// both in the cookie and in the request body or header; the guard compares
// the two in constant time.
//
// The guard is independent of session state: it protects anonymous visitors
// on sign-in forms just as it protects signed-in users.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingSecret = errors.New("csrf: missing secret")
	ErrMissingToken  = errors.New("csrf: missing token")
	ErrBadCookie     = errors.New("csrf: malformed or forged cookie")
	ErrTokenMismatch = errors.New("csrf: token mismatch")
)

const tokenBytes = 32

// Guard issues and validates CSRF tokens. Verification accepts macs produced
// under any configured secret so cookies survive secret rotation; issuance
// always uses the newest (first) secret.
type Guard struct {
	secrets [][]byte
}

// New creates a guard from one or more secrets, newest first.
func New(secrets []string) (*Guard, error) {
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			continue
		}
		keys = append(keys, []byte(s))
	}
	if len(keys) == 0 {
		return nil, ErrMissingSecret
	}
	return &Guard{secrets: keys}, nil
}

// Issue generates a fresh random token and its cookie encoding.
func (g *Guard) Issue() (token, cookieValue string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("csrf: entropy source failed: %w", err)
	}

	token = hex.EncodeToString(buf)
	return token, token + "|" + g.mac(token, g.secrets[0]), nil
}

// TokenFromCookie validates the cookie's mac and returns the embedded token.
// A cookie whose mac does not verify under any secret is treated as forged.
func (g *Guard) TokenFromCookie(cookieValue string) (string, error) {
	token, mac, ok := strings.Cut(cookieValue, "|")
	if !ok || token == "" {
		return "", ErrBadCookie
	}

	for _, secret := range g.secrets {
		if subtle.ConstantTimeCompare([]byte(mac), []byte(g.mac(token, secret))) == 1 {
			return token, nil
		}
	}
	return "", ErrBadCookie
}

// Verify checks a state-changing request: the cookie must carry a validly
// signed token and the submitted value must equal it. Both comparisons are
// constant-time.
func (g *Guard) Verify(cookieValue, submitted string) error {
	if cookieValue == "" || submitted == "" {
		return ErrMissingToken
	}

	token, err := g.TokenFromCookie(cookieValue)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

func (g *Guard) mac(token string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
