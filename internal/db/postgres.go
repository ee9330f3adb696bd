package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnisphere/internal/config"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

const postgresConnectTimeout = 10 * time.Second

// PostgresDB owns the pgx pool shared by the relational repositories
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgresDB opens the pool and pings it. Connections that fail a ping on
// acquire are discarded.
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(min(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))

	maxLifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection max lifetime: %w", err)
	}
	poolConfig.MaxConnLifetime = maxLifetime

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Dropping unhealthy postgres connection")
			return false
		}
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Int32("maxConns", poolConfig.MaxConns).
		Msg("Connected to PostgreSQL")

	return &PostgresDB{Pool: pool}, nil
}

// Ping checks that a pooled connection can reach the server
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close releases the pool
func (db *PostgresDB) Close() {
	if db != nil && db.Pool != nil {
		db.Pool.Close()
	}
}
