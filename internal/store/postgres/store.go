package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daylog-io/daylog/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
	logs *LogRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	s := &Store{
		pool: pool,
		logs: NewLogRepo(pool),
	}

	err = s.migrate(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// migrate creates the log_entries table if it does not exist. The schema is
// small enough that a migration tool would be overkill.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS log_entries (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL,
			raw_text TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			project TEXT NOT NULL DEFAULT '',
			duration_minutes DOUBLE PRECISION,
			tags JSONB,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS log_entries_timestamp_idx ON log_entries (timestamp);
		CREATE INDEX IF NOT EXISTS log_entries_source_idx ON log_entries (source);
	`)
	if err != nil {
		return fmt.Errorf("postgres.Store.migrate: %w", err)
	}

	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Logs() domain.LogRepository { return s.logs }
