package v1

import (
	"context"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/stats"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Logs() domain.LogRepository
}

// StatsProvider abstracts summary computation for handler testing.
// *stats.Aggregator satisfies this interface.
type StatsProvider interface {
	Summarize(ctx context.Context, windowDays int) (*stats.Report, error)
}

// QueryAnswerer abstracts natural-language log queries for handler testing.
// *review.Reviewer satisfies this interface.
type QueryAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}
