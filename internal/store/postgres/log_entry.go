package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daylog-io/daylog/internal/domain"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) Create(ctx context.Context, e *domain.LogEntry) error {
	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return fmt.Errorf("logRepo.Create: marshal tags: %w", err)
	}

	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("logRepo.Create: marshal metadata: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO log_entries (timestamp, source, raw_text, action, project, duration_minutes, tags, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		e.Timestamp, e.Source, e.RawText, e.Action, e.Project,
		e.DurationMinutes, tags, metadata, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("logRepo.Create: %w", err)
	}

	return nil
}

func (r *LogRepo) List(ctx context.Context, f domain.LogFilter) ([]*domain.LogEntry, error) {
	var (
		where []string
		args  []any
	)

	if f.Source != "" {
		args = append(args, f.Source)
		where = append(where, "source = $"+strconv.Itoa(len(args)))
	}
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		where = append(where, "timestamp >= $"+strconv.Itoa(len(args)))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		where = append(where, "timestamp <= $"+strconv.Itoa(len(args)))
	}

	q := `SELECT id, timestamp, source, raw_text, action, project, duration_minutes, tags, metadata, created_at
	 FROM log_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY timestamp DESC"

	// Limit 0 defaults to 100; a negative limit disables paging entirely,
	// which the stats aggregator relies on.
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 {
			limit = 100
		}
		args = append(args, limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
	}

	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("logRepo.List: %w", err)
	}
	defer rows.Close()

	return scanLogEntries(rows, "logRepo.List")
}

func scanLogEntries(rows pgx.Rows, caller string) ([]*domain.LogEntry, error) {
	var entries []*domain.LogEntry
	for rows.Next() {
		var (
			e        domain.LogEntry
			tags     []byte
			metadata []byte
		)

		err := rows.Scan(&e.ID, &e.Timestamp, &e.Source, &e.RawText, &e.Action,
			&e.Project, &e.DurationMinutes, &tags, &metadata, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}

		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &e.Tags); err != nil {
				return nil, fmt.Errorf("%s: unmarshal tags: %w", caller, err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("%s: unmarshal metadata: %w", caller, err)
			}
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
