// Package cookie manages the authentication cookie jar: the session token
// cookie plus the short-lived flow cookies (CSRF, state, PKCE verifier,
// nonce, callback URL) that carry per-attempt values across the OAuth
// redirect round trip.
//
// Every cookie is httpOnly, SameSite=Lax, path=/ by default. In a secure
// context names gain the "__Secure-" prefix ("__Host-" for the CSRF cookie,
// which must never be scoped to a subdomain or path). Flow cookies live for
// fifteen minutes; one sign-in attempt either completes or abandons them
// well within that window.
package cookie

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned when the request carries no such cookie.
var ErrNotFound = errors.New("cookie: not found")

// Kind names one of the jar's cookies.
type Kind int

const (
	KindSessionToken Kind = iota
	KindCSRFToken
	KindCallbackURL
	KindState
	KindPKCEVerifier
	KindNonce
)

// FlowMaxAge bounds the lifetime of per-attempt flow cookies.
const FlowMaxAge = 15 * time.Minute

var baseNames = map[Kind]string{
	KindSessionToken: "authkit.session-token",
	KindCSRFToken:    "authkit.csrf-token",
	KindCallbackURL:  "authkit.callback-url",
	KindState:        "authkit.state",
	KindPKCEVerifier: "authkit.pkce.code_verifier",
	KindNonce:        "authkit.nonce",
}

// Jar issues and reads the auth cookies for one configured deployment.
type Jar struct {
	secure bool
	domain string
}

// Option configures a Jar.
type Option func(*Jar)

// WithDomain scopes non-CSRF cookies to a domain.
func WithDomain(domain string) Option {
	return func(j *Jar) {
		j.domain = domain
	}
}

// New creates a jar. secure should be true whenever the application is
// served over HTTPS; it controls both the Secure attribute and the name
// prefixes.
func New(secure bool, opts ...Option) *Jar {
	j := &Jar{secure: secure}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Name returns the deployment-specific cookie name for a kind.
func (j *Jar) Name(kind Kind) string {
	base := baseNames[kind]
	if !j.secure {
		return base
	}
	if kind == KindCSRFToken {
		return "__Host-" + base
	}
	return "__Secure-" + base
}

// Set writes a cookie. maxAge <= 0 makes it a browser-session cookie.
func (j *Jar) Set(w http.ResponseWriter, kind Kind, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     j.Name(kind),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	}
	// __Host- forbids the Domain attribute.
	if j.domain != "" && !(j.secure && kind == KindCSRFToken) {
		c.Domain = j.domain
	}
	http.SetCookie(w, c)
}

// SetFlow writes a short-lived flow cookie.
func (j *Jar) SetFlow(w http.ResponseWriter, kind Kind, value string) {
	j.Set(w, kind, value, FlowMaxAge)
}

// Get reads a cookie value from the request.
func (j *Jar) Get(r *http.Request, kind Kind) (string, error) {
	c, err := r.Cookie(j.Name(kind))
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Clear expires a cookie immediately.
func (j *Jar) Clear(w http.ResponseWriter, kind Kind) {
	c := &http.Cookie{
		Name:     j.Name(kind),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if j.domain != "" && !(j.secure && kind == KindCSRFToken) {
		c.Domain = j.domain
	}
	http.SetCookie(w, c)
}

// ClearFlow expires every per-attempt flow cookie. Called after one
// validation attempt, successful or not, so stored check values are never
// replayable.
func (j *Jar) ClearFlow(w http.ResponseWriter) {
	for _, kind := range []Kind{KindCallbackURL, KindState, KindPKCEVerifier, KindNonce} {
		j.Clear(w, kind)
	}
}
