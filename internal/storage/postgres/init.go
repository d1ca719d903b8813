// Package postgres stores cameras, markers, requests, evidence and custody chains in
// PostgreSQL with PostGIS.
package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/config"
	"camwatch/pkg/e"
)

type Postgres struct {
	Pool     *pgxpool.Pool
	Cameras  *CameraRepo
	Markers  *MarkerRepo
	Requests *RequestRepo
	Custody  *CustodyRepo
	Evidence *EvidenceRepo
}

func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	logger.Info("Connecting to Postgres",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		logger.Error("Failed to parse pgx config", slog.Any("error", err))
		return nil, e.Wrap("storage.pg.NewPostgres.ParseConfig", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Failed to create pgx pool", slog.Any("error", err))
		return nil, e.Wrap("storage.pg.NewPostgres.NewWithConfig", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Failed to ping Postgres database", slog.Any("error", err))
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.Ping", err)
	}
	logger.Info("Connected to Postgres successfully")

	return New(pool, logger), nil
}

// New builds the repositories over an existing pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{
		Pool:     pool,
		Cameras:  &CameraRepo{pool: pool, logger: logger},
		Markers:  &MarkerRepo{pool: pool, logger: logger},
		Requests: &RequestRepo{pool: pool, logger: logger},
		Custody:  &CustodyRepo{pool: pool, logger: logger},
		Evidence: &EvidenceRepo{pool: pool, logger: logger},
	}
}

func (p *Postgres) Close() {
	p.Pool.Close()
}
