package jwt

import "errors"

var (
	ErrMissingSecret   = errors.New("jwt: missing secret")
	ErrSecretTooShort  = errors.New("jwt: secret must be at least 32 bytes")
	ErrMissingClaims   = errors.New("jwt: missing claims")
	ErrTokenInvalid    = errors.New("jwt: invalid token")
	ErrTokenExpired    = errors.New("jwt: token expired")
	ErrKeyDerivation   = errors.New("jwt: key derivation failed")
	ErrEncryptionSetup = errors.New("jwt: encryption setup failed")
)
