package jwt

import (
	"strings"
	"time"
)

// Config holds token codec configuration.
type Config struct {
	// Secrets is a comma-separated list of signing secrets, newest first.
	Secrets string `env:"AUTH_SECRET,required"`

	// MaxAge is the token lifetime (default: 720h = 30 days).
	MaxAge time.Duration `env:"AUTH_TOKEN_MAX_AGE" envDefault:"720h"`

	// Encryption wraps signed tokens in an AES-256-GCM envelope.
	Encryption bool `env:"AUTH_TOKEN_ENCRYPTION" envDefault:"false"`
}

// parseSecrets splits the comma-separated secret list, dropping blanks.
func (c Config) parseSecrets() []string {
	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a codec from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) (*Codec, error) {
	configOpts := make([]Option, 0, len(opts)+2)
	if cfg.MaxAge > 0 {
		configOpts = append(configOpts, WithMaxAge(cfg.MaxAge))
	}
	if cfg.Encryption {
		configOpts = append(configOpts, WithEncryption())
	}
	configOpts = append(configOpts, opts...)

	return New(cfg.parseSecrets(), configOpts...)
}
