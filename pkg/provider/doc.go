// Package provider models sign-in provider configuration as a closed set of
// variants and normalizes it into the uniform shape the rest of the core
// consumes.
//
// Four variants exist: OAuth2 (plain OAuth 2.0), OIDC (OpenID Connect),
// Email (magic-link) and Credentials. The Provider interface is sealed, so
// every consumption site can type-switch over the full set.
//
// A Registry computes per-provider signin/callback URLs from the
// application base URL and serves O(1) lookup by id. String endpoint
// shorthands like "https://x/authorize?audience=api" are parsed into an
// explicit URL plus parameter map so embedded query parameters survive
// later URL construction.
package provider
