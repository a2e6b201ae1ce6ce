// Package oauthflow drives the OAuth 2.0 / OIDC authorization-code flow:
// building the authorization redirect, validating the configured checks on
// callback, exchanging the code for tokens and producing the normalized
// user profile.
//
// The flow is split in two because a browser round trip sits in the middle.
// Begin produces the redirect URL plus the check values (state, PKCE
// verifier, nonce) the caller must park in short-lived cookies. Complete
// takes the callback query together with those stored values and refuses to
// touch the token endpoint until every configured check matches its
// callback counterpart.
//
// OIDC providers may omit explicit endpoints; the engine resolves them via
// issuer discovery and verifies id_tokens (signature, audience, nonce)
// before trusting their claims. Discovery results are cached per issuer for
// the life of the engine.
package oauthflow
