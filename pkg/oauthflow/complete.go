package oauthflow

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authkit/pkg/provider"
)

// Callback carries the provider's redirect parameters together with the
// check values stored at Begin time.
type Callback struct {
	Code          string
	State         string
	ProviderError string

	// Stored holds the cookie-bound values from Begin. Every configured
	// check must find its counterpart here before any exchange happens.
	Stored Authorization
}

// TokenSet is the provider token material returned by the code exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	Expiry       time.Time
}

// Outcome is a completed, validated sign-in attempt.
type Outcome struct {
	Profile provider.Profile
	Raw     map[string]any
	Tokens  TokenSet
}

// Complete validates the configured checks, exchanges the authorization
// code and produces the normalized profile. It performs no side effects;
// check failures are terminal and happen before any network call.
func (e *Engine) Complete(ctx context.Context, reg *provider.Registered, cb Callback) (*Outcome, error) {
	conf, cfg, issuer, err := e.oauthConfig(ctx, reg)
	if err != nil {
		return nil, err
	}

	if cb.ProviderError != "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderDenied, cb.ProviderError)
	}

	if err := validateChecks(cfg, cb); err != nil {
		return nil, err
	}

	if cb.Code == "" {
		return nil, ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	var exchangeOpts []oauth2.AuthCodeOption
	for k, v := range cfg.Token.Params {
		exchangeOpts = append(exchangeOpts, oauth2.SetAuthURLParam(k, v))
	}
	if cfg.HasCheck(provider.CheckPKCE) {
		exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(cb.Stored.Verifier))
	}

	token, err := conf.Exchange(ctx, cb.Code, exchangeOpts...)
	if err != nil {
		e.logger.DebugContext(ctx, "token exchange rejected",
			slog.String("provider", reg.ProviderID()), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	raw, idToken, err := e.fetchProfile(ctx, reg, cfg, issuer, conf, token, cb.Stored.Nonce)
	if err != nil {
		return nil, err
	}

	prof, err := cfg.Profile(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileParse, err)
	}
	if prof.ID == "" {
		return nil, fmt.Errorf("%w: mapped profile has no id", ErrProfileParse)
	}

	scope, _ := token.Extra("scope").(string)
	return &Outcome{
		Profile: prof,
		Raw:     raw,
		Tokens: TokenSet{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			IDToken:      idToken,
			TokenType:    token.TokenType,
			Scope:        scope,
			Expiry:       token.Expiry,
		},
	}, nil
}

// validateChecks compares every cookie-stored check value against its
// callback counterpart. A missing or mismatched check is a hard failure.
func validateChecks(cfg *provider.OAuth2, cb Callback) error {
	for _, check := range cfg.Checks {
		switch check {
		case provider.CheckState:
			if cb.Stored.State == "" || cb.State == "" {
				return fmt.Errorf("%w: state missing", ErrCheckFailed)
			}
			if subtle.ConstantTimeCompare([]byte(cb.Stored.State), []byte(cb.State)) != 1 {
				return fmt.Errorf("%w: state mismatch", ErrCheckFailed)
			}
		case provider.CheckPKCE:
			if cb.Stored.Verifier == "" {
				return fmt.Errorf("%w: pkce verifier missing", ErrCheckFailed)
			}
		case provider.CheckNonce:
			// Presence is checked here; the value is compared against the
			// id_token claim after signature verification.
			if cb.Stored.Nonce == "" {
				return fmt.Errorf("%w: nonce missing", ErrCheckFailed)
			}
		case provider.CheckNone:
		}
	}
	return nil
}

// fetchProfile produces the raw identity payload, either from the verified
// id_token claims or from the userinfo endpoint.
func (e *Engine) fetchProfile(
	ctx context.Context,
	reg *provider.Registered,
	cfg *provider.OAuth2,
	issuer string,
	conf *oauth2.Config,
	token *oauth2.Token,
	storedNonce string,
) (map[string]any, string, error) {
	rawIDToken, _ := token.Extra("id_token").(string)

	if cfg.UseIDToken && rawIDToken != "" {
		raw, err := e.idTokenClaims(ctx, cfg, issuer, rawIDToken, storedNonce)
		if err != nil {
			return nil, "", err
		}
		return raw, rawIDToken, nil
	}

	raw, err := e.userInfo(ctx, reg, cfg, issuer, conf, token)
	if err != nil {
		return nil, "", err
	}
	return raw, rawIDToken, nil
}

func (e *Engine) idTokenClaims(ctx context.Context, cfg *provider.OAuth2, issuer, rawIDToken, storedNonce string) (map[string]any, error) {
	if issuer != "" {
		discovered, err := e.discover(ctx, issuer)
		if err != nil {
			return nil, err
		}

		verifier := discovered.Verifier(&oidc.Config{ClientID: cfg.ClientID})
		idToken, err := verifier.Verify(oidc.ClientContext(ctx, e.client), rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: id_token verification: %v", ErrProfileFetch, err)
		}
		if storedNonce != "" && idToken.Nonce != storedNonce {
			return nil, fmt.Errorf("%w: nonce mismatch", ErrCheckFailed)
		}

		var raw map[string]any
		if err := idToken.Claims(&raw); err != nil {
			return nil, fmt.Errorf("%w: id_token claims: %v", ErrProfileFetch, err)
		}
		return raw, nil
	}

	// No issuer to verify against. The token arrived moments ago over TLS
	// straight from the token endpoint, so its claims carry the same trust
	// as a userinfo response; only the transport authenticated it.
	claims := gojwt.MapClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return nil, fmt.Errorf("%w: id_token parse: %v", ErrProfileFetch, err)
	}
	if storedNonce != "" {
		nonce, _ := claims["nonce"].(string)
		if nonce != storedNonce {
			return nil, fmt.Errorf("%w: nonce mismatch", ErrCheckFailed)
		}
	}
	return map[string]any(claims), nil
}

func (e *Engine) userInfo(
	ctx context.Context,
	reg *provider.Registered,
	cfg *provider.OAuth2,
	issuer string,
	conf *oauth2.Config,
	token *oauth2.Token,
) (map[string]any, error) {
	endpoint := cfg.UserInfo.URL
	if endpoint == "" && issuer != "" {
		discovered, err := e.discover(ctx, issuer)
		if err != nil {
			return nil, err
		}
		info, err := discovered.UserInfo(oidc.ClientContext(ctx, e.client), oauth2.StaticTokenSource(token))
		if err != nil {
			return nil, fmt.Errorf("%w: userinfo: %v", ErrProfileFetch, err)
		}
		var raw map[string]any
		if err := info.Claims(&raw); err != nil {
			return nil, fmt.Errorf("%w: userinfo claims: %v", ErrProfileFetch, err)
		}
		return raw, nil
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: provider %s has no userinfo endpoint", ErrProfileFetch, reg.ProviderID())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	token.SetAuthHeader(req)
	for k, v := range cfg.UserInfo.Params {
		q := req.URL.Query()
		q.Set(k, v)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrProfileFetch, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: userinfo body: %v", ErrProfileFetch, err)
	}
	return raw, nil
}
