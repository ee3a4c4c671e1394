package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-calendar/internal/config"
	"ms-calendar/internal/logger"
)

const (
	DefaultAttempts   = 5
	DefaultRetryDelay = 2 * time.Second
)

type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Connect opens the PostgreSQL pool and pings it, retrying per policy.
// Pool limits come from cfg so exhaustion surfaces as query errors instead
// of unbounded connection growth.
func Connect(ctx context.Context, cfg config.DatabaseConfig, policy RetryPolicy, log *logger.Logger) (*bun.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxIdleTime(cfg.IdleTimeout)

	for i := 0; i < policy.Attempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL %s (attempt %d/%d)", cfg.Redacted(), i+1, policy.Attempts))

		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout+time.Second)
		err = sqldb.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < policy.Attempts-1 {
			select {
			case <-ctx.Done():
				sqldb.Close()
				return nil, ctx.Err()
			case <-time.After(policy.Delay):
			}
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", policy.Attempts, err)
	}

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
