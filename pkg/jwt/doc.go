// Package jwt implements the session token codec: signing, verification and
// optional authenticated encryption of compact session tokens.
//
// Tokens are HS256-signed JWTs. Signing and encryption keys are never used
// raw: they are derived from the configured secret with HKDF-SHA256 under
// distinct purpose strings, so the two keys differ even though they come
// from the same secret. When encryption is enabled the signed token is
// wrapped in an AES-256-GCM envelope.
//
// Multiple secrets may be configured for rotation. Encoding always uses the
// newest (first) secret; decoding tries every secret newest-first, so tokens
// issued under a retired secret stay valid until they expire.
//
// Decode reports every failure as ErrTokenInvalid or ErrTokenExpired and
// never panics on malformed input. Callers that gate access on a token must
// treat the two identically; the split exists only for logs and tests.
package jwt
