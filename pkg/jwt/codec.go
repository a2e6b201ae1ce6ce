package jwt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultMaxAge mirrors the default session lifetime.
const DefaultMaxAge = 30 * 24 * time.Hour

const minSecretLength = 32

// Claims is the decoded token payload.
type Claims map[string]any

// Codec signs, verifies and optionally encrypts session tokens.
type Codec struct {
	signingKeys    [][]byte // newest first, one per configured secret
	encryptionKeys [][]byte
	maxAge         time.Duration
	encryption     bool
}

// Option configures a Codec during construction.
type Option func(*options)

type options struct {
	maxAge        time.Duration
	encryption    bool
	signingKey    []byte
	encryptionKey []byte
}

// WithMaxAge sets the token lifetime embedded as the exp claim.
func WithMaxAge(maxAge time.Duration) Option {
	return func(o *options) {
		o.maxAge = maxAge
	}
}

// WithEncryption wraps signed tokens in an AES-256-GCM envelope.
func WithEncryption() Option {
	return func(o *options) {
		o.encryption = true
	}
}

// WithSigningKey supplies an explicit signing key instead of deriving one
// from the secret. Rotation does not apply to an explicit key.
func WithSigningKey(key []byte) Option {
	return func(o *options) {
		o.signingKey = key
	}
}

// WithEncryptionKey supplies an explicit encryption key instead of deriving
// one from the secret.
func WithEncryptionKey(key []byte) Option {
	return func(o *options) {
		o.encryptionKey = key
	}
}

// New creates a codec from one or more secrets, newest first. Secrets must
// be at least 32 bytes each.
func New(secrets []string, opts ...Option) (*Codec, error) {
	if len(secrets) == 0 {
		return nil, ErrMissingSecret
	}
	for i, s := range secrets {
		if s == "" {
			return nil, ErrMissingSecret
		}
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d bytes", ErrSecretTooShort, i, len(s))
		}
	}

	o := options{maxAge: DefaultMaxAge}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Codec{
		maxAge:     o.maxAge,
		encryption: o.encryption,
	}

	for _, s := range secrets {
		sk := o.signingKey
		if sk == nil {
			var err error
			sk, err = DeriveKey([]byte(s), purposeSigning, keySize)
			if err != nil {
				return nil, err
			}
		}
		ek := o.encryptionKey
		if ek == nil {
			var err error
			ek, err = DeriveKey([]byte(s), purposeEncryption, keySize)
			if err != nil {
				return nil, err
			}
		}
		c.signingKeys = append(c.signingKeys, sk)
		c.encryptionKeys = append(c.encryptionKeys, ek)
	}

	return c, nil
}

// Encode signs the claims under the newest secret and returns a compact
// token. Registered temporal claims (iat, exp, jti) are filled in; caller
// values for those keys are preserved if already present.
func (c *Codec) Encode(claims Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	now := time.Now()
	payload := make(gojwt.MapClaims, len(claims)+3)
	maps.Copy(payload, claims)
	if _, ok := payload["iat"]; !ok {
		payload["iat"] = now.Unix()
	}
	if _, ok := payload["exp"]; !ok {
		payload["exp"] = now.Add(c.maxAge).Unix()
	}
	if _, ok := payload["jti"]; !ok {
		payload["jti"] = uuid.NewString()
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, payload).SignedString(c.signingKeys[0])
	if err != nil {
		return "", fmt.Errorf("jwt: signing failed: %w", err)
	}

	if !c.encryption {
		return signed, nil
	}
	return c.encrypt(signed, c.encryptionKeys[0])
}

// Decode verifies the token against every configured secret, newest first.
// Any structural, signature or algorithm problem yields ErrTokenInvalid; an
// otherwise valid token past its exp claim yields ErrTokenExpired. Callers
// must treat both as "no session".
func (c *Codec) Decode(token string) (Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)

	decodeErr := ErrTokenInvalid
	for i, key := range c.signingKeys {
		candidate := token
		if c.encryption {
			plain, err := c.decrypt(token, c.encryptionKeys[i])
			if err != nil {
				continue
			}
			candidate = plain
		}

		claims := gojwt.MapClaims{}
		_, err := parser.ParseWithClaims(candidate, claims, func(*gojwt.Token) (any, error) {
			return key, nil
		})
		if err == nil {
			return Claims(claims), nil
		}
		if errors.Is(err, gojwt.ErrTokenExpired) {
			decodeErr = ErrTokenExpired
		}
	}

	return nil, decodeErr
}

// MaxAge reports the configured token lifetime.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

func (c *Codec) encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionSetup, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionSetup, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionSetup, err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) decrypt(token string, key []byte) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTokenInvalid
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrTokenInvalid
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrTokenInvalid
	}

	plain, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return string(plain), nil
}
