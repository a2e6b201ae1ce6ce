package oauthflow

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Authorization is the result of starting a sign-in attempt: the URL to
// redirect the browser to, plus the check values the caller must bind into
// short-lived cookies and replay on callback.
type Authorization struct {
	RedirectURL string

	// State, Verifier and Nonce are set only for the checks the provider
	// has configured.
	State    string
	Verifier string
	Nonce    string
}

// Begin builds the authorization redirect for the given provider. Extra
// params requested by the caller are appended last so they never override
// protocol parameters.
func (e *Engine) Begin(ctx context.Context, reg *provider.Registered, extraParams map[string]string) (*Authorization, error) {
	conf, cfg, _, err := e.oauthConfig(ctx, reg)
	if err != nil {
		return nil, err
	}

	auth := &Authorization{}
	var opts []oauth2.AuthCodeOption

	// Shorthand endpoint params first, then the descriptor's static
	// params, then caller params.
	for k, v := range cfg.Authorization.Params {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	for k, v := range cfg.AuthorizationParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	for k, v := range extraParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	if cfg.HasCheck(provider.CheckState) {
		if auth.State, err = randomValue(); err != nil {
			return nil, err
		}
	}
	if cfg.HasCheck(provider.CheckPKCE) {
		auth.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(auth.Verifier))
	}
	if cfg.HasCheck(provider.CheckNonce) {
		if auth.Nonce, err = randomValue(); err != nil {
			return nil, err
		}
		opts = append(opts, oauth2.SetAuthURLParam("nonce", auth.Nonce))
	}

	auth.RedirectURL = conf.AuthCodeURL(auth.State, opts...)

	e.logger.DebugContext(ctx, "authorization redirect built",
		slog.String("provider", reg.ProviderID()),
		slog.Bool("state", auth.State != ""),
		slog.Bool("pkce", auth.Verifier != ""),
		slog.Bool("nonce", auth.Nonce != ""),
	)

	return auth, nil
}
