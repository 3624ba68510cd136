package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName = "scriptgen"
	connectTimeout  = 10 * time.Second

	// Generation history sees one insert per request and occasional reads.
	historyMaxConns     = 8
	historyMaxIdleTime  = 5 * time.Minute
	historyHealthPeriod = 30 * time.Second
)

// History is the Postgres pool behind the generation history store.
type History struct {
	pool *pgxpool.Pool
}

// OpenHistory connects to databaseURL. Migrations are applied separately by
// RunMigrations.
func OpenHistory(ctx context.Context, databaseURL string) (*History, error) {
	cfg, err := historyConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open history pool: %w", err)
	}
	h := &History{pool: pool}
	if err := h.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return h, nil
}

func historyConfig(databaseURL string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	cfg.MaxConns = historyMaxConns
	cfg.MaxConnIdleTime = historyMaxIdleTime
	cfg.HealthCheckPeriod = historyHealthPeriod
	return cfg, nil
}

func (h *History) Pool() *pgxpool.Pool {
	return h.pool
}

// Ping runs SELECT 1 on a pooled connection.
func (h *History) Ping(ctx context.Context) error {
	var one int
	if err := h.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (h *History) Close() {
	h.pool.Close()
}
