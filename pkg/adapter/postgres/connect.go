package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidConnString = errors.New("postgres: failed to parse connection string")
	ErrNotReady          = errors.New("postgres: database is not reachable")
	ErrMigrationFailed   = errors.New("postgres: failed to apply auth schema migrations")
)

// Config holds connection pool configuration.
type Config struct {
	ConnectionString  string        `env:"DATABASE_URL,required"`
	MaxOpenConns      int32         `env:"AUTH_PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"AUTH_PG_MAX_IDLE_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"AUTH_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"AUTH_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"AUTH_PG_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"AUTH_PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"AUTH_PG_RETRY_INTERVAL" envDefault:"5s"`
}

// Connect opens a connection pool and verifies it with a ping, retrying
// with a linearly growing backoff so a database that is still starting up
// does not fail the whole application boot.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrInvalidConnString, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrNotReady
}

// Healthcheck returns a probe for health endpoints.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrNotReady, err)
		}
		return nil
	}
}
