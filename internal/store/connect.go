package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// connectTimeout bounds how long Connect waits for the database to accept
// connections.
const connectTimeout = 30 * time.Second

// newBackOff is replaced in tests.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = connectTimeout
	return b
}

// Connect opens a pool for url and returns a store on it together with a
// cleanup function closing the pool. The first ping is retried until the
// database answers or the retry budget runs out.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid database URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s, err := newWithRetry(ctx, pool, newBackOff(), logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

func newWithRetry(ctx context.Context, pool DBPool, b backoff.BackOff, logger *zap.Logger) (*Store, error) {
	var s *Store
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		s, err = New(ctx, pool, logger)
		if err != nil {
			logger.Warn("Database not reachable yet", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempt(s): %w", attempt, err)
	}
	return s, nil
}
