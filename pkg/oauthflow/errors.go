package oauthflow

import "errors"

var (
	// ErrProviderDenied is returned when the callback carries an error
	// parameter instead of an authorization code.
	ErrProviderDenied = errors.New("oauthflow: provider returned an error response")

	// ErrMissingCode is returned when the callback has no code parameter.
	ErrMissingCode = errors.New("oauthflow: missing authorization code")

	// ErrCheckFailed is returned when a configured check (state, pkce,
	// nonce) is missing or does not match its callback counterpart.
	ErrCheckFailed = errors.New("oauthflow: security check failed")

	// ErrExchangeFailed is returned when the token endpoint rejects the
	// code exchange or responds with a malformed body.
	ErrExchangeFailed = errors.New("oauthflow: token exchange failed")

	// ErrProfileFetch is returned when the userinfo request fails or the
	// id_token cannot be verified.
	ErrProfileFetch = errors.New("oauthflow: profile fetch failed")

	// ErrProfileParse is returned when the provider's profile mapping
	// fails or yields no identity.
	ErrProfileParse = errors.New("oauthflow: profile parse failed")

	// ErrUnsupportedProvider is returned for provider variants that do
	// not participate in the authorization-code flow.
	ErrUnsupportedProvider = errors.New("oauthflow: provider does not support the authorization-code flow")

	// ErrDiscoveryFailed is returned when OIDC issuer discovery fails.
	ErrDiscoveryFailed = errors.New("oauthflow: issuer discovery failed")
)
