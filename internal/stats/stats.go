// Package stats computes aggregate summaries over stored log entries.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/daylog-io/daylog/internal/domain"
)

// DefaultTopActions caps the number of actions reported in a summary.
const DefaultTopActions = 10

// ActionCount is one row of the top-actions ranking.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Report summarizes logging activity over a trailing window.
type Report struct {
	WindowDays           int            `json:"window_days"`
	TotalCount           int            `json:"total_count"`
	TotalDurationMinutes float64        `json:"total_duration_minutes"`
	CountsBySource       map[string]int `json:"counts_by_source"`
	TopActions           []ActionCount  `json:"top_actions"`
}

// Aggregator builds reports from the log repository.
type Aggregator struct {
	repo domain.LogRepository
	now  func() time.Time
}

func NewAggregator(repo domain.LogRepository) *Aggregator {
	return &Aggregator{repo: repo, now: time.Now}
}

// Summarize aggregates all entries whose timestamp falls within the last
// windowDays days. Entries without a duration count toward totals but
// contribute nothing to the duration sum.
func (a *Aggregator) Summarize(ctx context.Context, windowDays int) (*Report, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	end := a.now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	entries, err := a.repo.List(ctx, domain.LogFilter{Start: start, End: end, Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("stats.Aggregator.Summarize: %w", err)
	}

	rep := &Report{
		WindowDays:     windowDays,
		CountsBySource: make(map[string]int),
	}

	actionCounts := make(map[string]int)
	actionOrder := make(map[string]int)
	for _, e := range entries {
		rep.TotalCount++
		rep.CountsBySource[string(e.Source)]++
		if e.DurationMinutes != nil {
			rep.TotalDurationMinutes += *e.DurationMinutes
		}
		if _, ok := actionCounts[e.Action]; !ok {
			actionOrder[e.Action] = len(actionOrder)
		}
		actionCounts[e.Action]++
	}

	rep.TopActions = rankActions(actionCounts, actionOrder, DefaultTopActions)
	return rep, nil
}

// rankActions orders actions by descending count, breaking ties by first
// occurrence so the ranking is stable across runs.
func rankActions(counts map[string]int, order map[string]int, limit int) []ActionCount {
	ranked := make([]ActionCount, 0, len(counts))
	for action, n := range counts {
		ranked = append(ranked, ActionCount{Action: action, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return order[ranked[i].Action] < order[ranked[j].Action]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
