package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremesh/formlink"
)

// ValidateDatabaseConfig performs basic sanity checks on Postgres settings
// before any connection is attempted.
func ValidateDatabaseConfig(cfg formlink.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	return nil
}

// ValidateArchiveConfig performs basic sanity checks on S3 archive settings.
func ValidateArchiveConfig(cfg formlink.ArchiveConfig) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("archive.bucket is required")
	}
	if cfg.Prefix == "" {
		return fmt.Errorf("archive.prefix is required")
	}
	return nil
}

// PostgresHealthCheck attempts to connect and ping a Postgres instance using a
// DSN. timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, dsn string, timeout time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
