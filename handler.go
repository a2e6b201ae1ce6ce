package authkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authkit/pkg/adapter"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/oauthflow"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/pkg/session"
)

// Handler returns the HTTP surface of the auth core, meant to be mounted
// under the base URL path (e.g. r.Mount("/auth", auth.Handler())).
//
// Actions: GET /signin, POST /signin/{provider}, GET+POST
// /callback/{provider}, POST /signout, GET /session, GET /csrf,
// GET /providers, GET /verify-request, GET /error. Anything else resolves
// to an UnknownAction error redirect.
func (a *Auth) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/signin", a.handleProviders)
	r.Post("/signin/{provider}", a.handleSignIn)
	r.Get("/callback/{provider}", a.handleCallback)
	r.Post("/callback/{provider}", a.handleCallback)
	r.Post("/signout", a.handleSignOut)
	r.Get("/session", a.handleSession)
	r.Get("/csrf", a.handleCSRF)
	r.Get("/providers", a.handleProviders)
	r.Get("/verify-request", a.handleVerifyRequest)
	r.Get("/error", a.handleError)
	r.NotFound(a.handleUnknown)
	r.MethodNotAllowed(a.handleUnknown)

	return r
}

// handleSignIn starts a sign-in attempt for one provider: the OAuth
// authorization redirect, the magic-link mail, or direct credentials
// validation.
func (a *Auth) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	base, reg, err := a.registryFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.verifyCSRF(r); err != nil {
		a.fail(w, r, err)
		return
	}

	p, err := reg.Get(chi.URLParam(r, "provider"))
	if err != nil {
		a.fail(w, r, newError(KindUnknownAction, "", err))
		return
	}

	destination, err := a.callbacks.redirect(ctx, r.FormValue("callbackUrl"), base)
	if err != nil {
		a.fail(w, r, newError(KindConfiguration, p.ProviderID(), err))
		return
	}

	switch v := p.Provider.(type) {
	case *provider.OAuth2, *provider.OIDC:
		auth, err := a.engine.Begin(ctx, p, nil)
		if err != nil {
			a.fail(w, r, newError(KindOAuthSignIn, p.ProviderID(), err))
			return
		}

		a.jar.SetFlow(w, cookie.KindCallbackURL, destination)
		if auth.State != "" {
			a.jar.SetFlow(w, cookie.KindState, auth.State)
		}
		if auth.Verifier != "" {
			a.jar.SetFlow(w, cookie.KindPKCEVerifier, auth.Verifier)
		}
		if auth.Nonce != "" {
			a.jar.SetFlow(w, cookie.KindNonce, auth.Nonce)
		}

		http.Redirect(w, r, auth.RedirectURL, http.StatusFound)

	case *provider.Email:
		if err := a.startEmailSignIn(ctx, p, v, strings.TrimSpace(r.FormValue("email"))); err != nil {
			a.fail(w, r, err)
			return
		}
		a.jar.SetFlow(w, cookie.KindCallbackURL, destination)
		http.Redirect(w, r, base.String()+"/verify-request?provider="+url.QueryEscape(p.ProviderID()), http.StatusFound)

	case *provider.Credentials:
		a.signInCredentials(w, r, v, destination)

	default:
		a.fail(w, r, newError(KindUnknownAction, p.ProviderID(), fmt.Errorf("unsupported provider variant")))
	}
}

// handleCallback completes a sign-in attempt: OAuth code exchange, magic
// link redemption, or a credentials POST.
func (a *Auth) handleCallback(w http.ResponseWriter, r *http.Request) {
	_, reg, err := a.registryFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	p, err := reg.Get(chi.URLParam(r, "provider"))
	if err != nil {
		a.fail(w, r, newError(KindUnknownAction, "", err))
		return
	}

	switch v := p.Provider.(type) {
	case *provider.OIDC:
		a.completeOAuth(w, r, p, &v.OAuth2, provider.TypeOIDC)
	case *provider.OAuth2:
		a.completeOAuth(w, r, p, v, provider.TypeOAuth2)
	case *provider.Email:
		a.completeEmail(w, r, p)
	case *provider.Credentials:
		if err := a.verifyCSRF(r); err != nil {
			a.fail(w, r, err)
			return
		}
		destination, err := a.storedDestination(w, r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.signInCredentials(w, r, v, destination)
	default:
		a.fail(w, r, newError(KindUnknownAction, p.ProviderID(), fmt.Errorf("unsupported provider variant")))
	}
}

func (a *Auth) completeOAuth(w http.ResponseWriter, r *http.Request, p *provider.Registered, cfg *provider.OAuth2, providerType provider.Type) {
	ctx := r.Context()
	q := r.URL.Query()

	stored := oauthflow.Authorization{}
	stored.State, _ = a.jar.Get(r, cookie.KindState)
	stored.Verifier, _ = a.jar.Get(r, cookie.KindPKCEVerifier)
	stored.Nonce, _ = a.jar.Get(r, cookie.KindNonce)
	destination, _ := a.jar.Get(r, cookie.KindCallbackURL)

	// One validation attempt per stored context, successful or not.
	a.jar.ClearFlow(w)

	outcome, err := a.engine.Complete(ctx, p, oauthflow.Callback{
		Code:          q.Get("code"),
		State:         q.Get("state"),
		ProviderError: q.Get("error"),
		Stored:        stored,
	})
	if err != nil {
		a.fail(w, r, newError(oauthKind(err), p.ProviderID(), err))
		return
	}

	allowed, err := a.callbacks.allowSignIn(ctx, outcome.Profile, p.ProviderID())
	if err != nil {
		a.fail(w, r, newError(KindConfiguration, p.ProviderID(), err))
		return
	}
	if !allowed {
		a.fail(w, r, newError(KindAccessDenied, p.ProviderID(), nil))
		return
	}

	var (
		token   string
		expires time.Time
	)
	if a.store != nil {
		user, err := a.link(ctx, cfg, providerType, outcome)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		token, expires, err = a.sessions.Issue(ctx, user)
		if err != nil {
			a.fail(w, r, newError(KindAdapter, p.ProviderID(), err))
			return
		}
		if a.sessions.Strategy() == session.StrategyDatabase {
			a.events.createSession(ctx, token, user)
		}
		a.events.signIn(ctx, user, p.ProviderID())
	} else {
		token, expires, err = a.sessions.IssueJWT(ctx, session.User{
			ID:    outcome.Profile.ID,
			Name:  outcome.Profile.Name,
			Email: outcome.Profile.Email,
			Image: outcome.Profile.Image,
		})
		if err != nil {
			a.fail(w, r, newError(KindConfiguration, p.ProviderID(), err))
			return
		}
		a.events.signIn(ctx, &adapter.User{
			Name:  outcome.Profile.Name,
			Email: outcome.Profile.Email,
			Image: outcome.Profile.Image,
		}, p.ProviderID())
	}

	a.jar.Set(w, cookie.KindSessionToken, token, time.Until(expires))
	a.redirectAfterSignIn(w, r, destination)
}

func (a *Auth) completeEmail(w http.ResponseWriter, r *http.Request, p *provider.Registered) {
	ctx := r.Context()
	q := r.URL.Query()

	destination, _ := a.jar.Get(r, cookie.KindCallbackURL)
	a.jar.ClearFlow(w)

	user, err := a.redeemEmailToken(ctx, p.ProviderID(), q.Get("email"), q.Get("token"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	allowed, err := a.callbacks.allowSignIn(ctx, provider.Profile{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}, p.ProviderID())
	if err != nil {
		a.fail(w, r, newError(KindConfiguration, p.ProviderID(), err))
		return
	}
	if !allowed {
		a.fail(w, r, newError(KindAccessDenied, p.ProviderID(), nil))
		return
	}

	token, expires, err := a.sessions.Issue(ctx, user)
	if err != nil {
		a.fail(w, r, newError(KindAdapter, p.ProviderID(), err))
		return
	}
	if a.sessions.Strategy() == session.StrategyDatabase {
		a.events.createSession(ctx, token, user)
	}
	a.events.signIn(ctx, user, p.ProviderID())

	a.jar.Set(w, cookie.KindSessionToken, token, time.Until(expires))
	a.redirectAfterSignIn(w, r, destination)
}

// signInCredentials validates caller-supplied credentials and issues a
// stateless session. No durable record backs a credentials identity, so
// the session is always a JWT regardless of the configured strategy.
func (a *Auth) signInCredentials(w http.ResponseWriter, r *http.Request, cfg *provider.Credentials, destination string) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		a.fail(w, r, newError(KindAccessDenied, cfg.ID, err))
		return
	}
	credentials := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		if k == "csrfToken" || k == "callbackUrl" {
			continue
		}
		credentials[k] = r.PostForm.Get(k)
	}

	profile, err := cfg.Authorize(ctx, credentials)
	if err != nil {
		a.fail(w, r, newError(KindAccessDenied, cfg.ID, err))
		return
	}
	if profile == nil {
		a.fail(w, r, newError(KindAccessDenied, cfg.ID, fmt.Errorf("credentials rejected")))
		return
	}

	allowed, err := a.callbacks.allowSignIn(ctx, *profile, cfg.ID)
	if err != nil {
		a.fail(w, r, newError(KindConfiguration, cfg.ID, err))
		return
	}
	if !allowed {
		a.fail(w, r, newError(KindAccessDenied, cfg.ID, nil))
		return
	}

	token, expires, err := a.sessions.IssueJWT(ctx, session.User{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
		Image: profile.Image,
	})
	if err != nil {
		a.fail(w, r, newError(KindConfiguration, cfg.ID, err))
		return
	}
	a.events.signIn(ctx, &adapter.User{Name: profile.Name, Email: profile.Email}, cfg.ID)

	a.jar.Set(w, cookie.KindSessionToken, token, time.Until(expires))
	a.redirectAfterSignIn(w, r, destination)
}

// handleSignOut terminates the current session and clears its cookie.
func (a *Auth) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := a.verifyCSRF(r); err != nil {
		a.fail(w, r, err)
		return
	}

	token, _ := a.jar.Get(r, cookie.KindSessionToken)
	if token != "" {
		if err := a.sessions.Destroy(ctx, token); err != nil {
			a.fail(w, r, newError(KindAdapter, "", err))
			return
		}
		a.events.signOut(ctx, token)
	}
	a.jar.Clear(w, cookie.KindSessionToken)

	base, _, err := a.registryFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	destination, err := a.callbacks.redirect(ctx, r.FormValue("callbackUrl"), base)
	if err != nil {
		destination = base.Scheme + "://" + base.Host
	}
	http.Redirect(w, r, destination, http.StatusFound)
}

// handleSession returns the current session as JSON, or null for
// unauthenticated requests. Only adapter failures surface as errors.
func (a *Auth) handleSession(w http.ResponseWriter, r *http.Request) {
	resolved, err := a.resolve(r)
	if err != nil {
		if errors.Is(err, session.ErrBackendFailure) {
			a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": string(KindAdapter)})
			return
		}
		a.writeJSON(w, http.StatusOK, nil)
		return
	}

	if resolved.Refreshed {
		a.jar.Set(w, cookie.KindSessionToken, resolved.Token, time.Until(resolved.Session.Expires))
	}
	a.writeJSON(w, http.StatusOK, resolved.Session)
}

// handleCSRF returns the CSRF token for the current browser, minting the
// cookie on first contact.
func (a *Auth) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookieValue, err := a.jar.Get(r, cookie.KindCSRFToken); err == nil {
		token, _ = a.guard.TokenFromCookie(cookieValue)
	}
	if token == "" {
		var cookieValue string
		var err error
		token, cookieValue, err = a.guard.Issue()
		if err != nil {
			a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": string(KindConfiguration)})
			return
		}
		a.jar.Set(w, cookie.KindCSRFToken, cookieValue, 0)
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// handleProviders lists the registered providers with their computed URLs.
func (a *Auth) handleProviders(w http.ResponseWriter, r *http.Request) {
	_, reg, err := a.registryFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	type providerInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Type        string `json:"type"`
		SigninURL   string `json:"signinUrl"`
		CallbackURL string `json:"callbackUrl"`
	}
	out := make(map[string]providerInfo)
	for _, p := range reg.All() {
		out[p.ProviderID()] = providerInfo{
			ID:          p.ProviderID(),
			Name:        p.ProviderName(),
			Type:        string(p.ProviderType()),
			SigninURL:   p.SigninURL,
			CallbackURL: p.CallbackURL,
		}
	}
	a.writeJSON(w, http.StatusOK, out)
}

func (a *Auth) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{
		"message": "A sign-in link has been sent to your email address.",
	})
}

// handleError reports the error kind carried by the redirect. Applications
// typically intercept this route and render their own page.
func (a *Auth) handleError(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("error")
	if kind == "" {
		kind = string(KindConfiguration)
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"error": kind})
}

func (a *Auth) handleUnknown(w http.ResponseWriter, r *http.Request) {
	a.fail(w, r, newError(KindUnknownAction, "", fmt.Errorf("%s %s", r.Method, r.URL.Path)))
}

// verifyCSRF enforces the double-submit check on state-changing actions.
// The submitted token travels in the csrfToken form field or the
// X-CSRF-Token header.
func (a *Auth) verifyCSRF(r *http.Request) error {
	if a.skipCSRF {
		return nil
	}

	cookieValue, _ := a.jar.Get(r, cookie.KindCSRFToken)
	submitted := r.Header.Get("X-CSRF-Token")
	if submitted == "" {
		submitted = r.FormValue("csrfToken")
	}

	if err := a.guard.Verify(cookieValue, submitted); err != nil {
		return newError(KindMissingCSRF, "", err)
	}
	return nil
}

// fail surfaces an interactive failure as a redirect to the error page
// with the kind in the query string. When no base URL can be determined
// the kind is returned as JSON instead.
func (a *Auth) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindOf(err)
	a.logger.WarnContext(r.Context(), "sign-in flow failed",
		slog.String("kind", string(kind)),
		slog.Any("error", err),
	)

	base := a.baseURL
	if base == nil {
		if inferred, inferErr := a.cfg.inferBaseURL(r); inferErr == nil {
			base = inferred
		}
	}
	if base == nil {
		status := http.StatusBadRequest
		if kind == KindAdapter {
			status = http.StatusInternalServerError
		}
		a.writeJSON(w, status, map[string]string{"error": string(kind)})
		return
	}

	http.Redirect(w, r, base.String()+"/error?error="+url.QueryEscape(string(kind)), http.StatusFound)
}

func (a *Auth) redirectAfterSignIn(w http.ResponseWriter, r *http.Request, destination string) {
	base := a.baseURL
	if base == nil {
		if inferred, err := a.cfg.inferBaseURL(r); err == nil {
			base = inferred
		}
	}
	if base != nil {
		sanitized, err := a.callbacks.redirect(r.Context(), destination, base)
		if err == nil {
			destination = sanitized
		} else {
			destination = base.Scheme + "://" + base.Host
		}
	}
	if destination == "" {
		destination = "/"
	}
	http.Redirect(w, r, destination, http.StatusFound)
}

// storedDestination reads and clears the callback-url flow cookie.
func (a *Auth) storedDestination(w http.ResponseWriter, r *http.Request) (string, error) {
	destination, err := a.jar.Get(r, cookie.KindCallbackURL)
	if err != nil && !errors.Is(err, cookie.ErrNotFound) {
		return "", newError(KindConfiguration, "", err)
	}
	a.jar.Clear(w, cookie.KindCallbackURL)
	return destination, nil
}

// resolve validates the session credential carried by the request: the
// session cookie, or a bearer token for API clients.
func (a *Auth) resolve(r *http.Request) (*session.Resolved, error) {
	token, _ := a.jar.Get(r, cookie.KindSessionToken)
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	return a.sessions.Resolve(r.Context(), token)
}

func (a *Auth) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to encode response", slog.Any("error", err))
	}
}

// oauthKind maps exchange engine failures onto the error hierarchy.
func oauthKind(err error) Kind {
	switch {
	case errors.Is(err, oauthflow.ErrProfileParse):
		return KindOAuthProfileParse
	case errors.Is(err, oauthflow.ErrExchangeFailed),
		errors.Is(err, oauthflow.ErrProfileFetch),
		errors.Is(err, oauthflow.ErrDiscoveryFailed):
		return KindOAuthSignIn
	default:
		return KindOAuthCallback
	}
}

// SessionFromRequest resolves the session for a request outside the auth
// routes, e.g. inside application middleware. It returns (nil, nil) for
// unauthenticated requests; an error always means backend failure.
func (a *Auth) SessionFromRequest(r *http.Request) (*session.Session, error) {
	resolved, err := a.resolve(r)
	if err != nil {
		if errors.Is(err, session.ErrBackendFailure) {
			return nil, newError(KindAdapter, "", err)
		}
		return nil, nil
	}
	return resolved.Session, nil
}
