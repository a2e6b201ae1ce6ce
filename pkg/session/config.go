package session

import "time"

// Config holds session manager configuration.
type Config struct {
	// Strategy forces "database" or "jwt"; empty selects by adapter
	// presence.
	Strategy string `env:"AUTH_SESSION_STRATEGY" envDefault:""`

	// MaxAge is the session lifetime (default 30 days).
	MaxAge time.Duration `env:"AUTH_SESSION_MAX_AGE" envDefault:"720h"`

	// UpdateAge throttles rolling renewal writes (default 24h).
	UpdateAge time.Duration `env:"AUTH_SESSION_UPDATE_AGE" envDefault:"24h"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxAge:    30 * 24 * time.Hour,
		UpdateAge: 24 * time.Hour,
	}
}

// NewFromConfig creates a Manager from the provided Config. Adapter and
// codec still arrive via options.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := make([]Option, 0, len(opts)+3)
	if cfg.Strategy != "" {
		configOpts = append(configOpts, WithStrategy(Strategy(cfg.Strategy)))
	}
	if cfg.MaxAge > 0 {
		configOpts = append(configOpts, WithMaxAge(cfg.MaxAge))
	}
	if cfg.UpdateAge > 0 {
		configOpts = append(configOpts, WithUpdateAge(cfg.UpdateAge))
	}
	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
