package syncer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/oracle"
	"github.com/daylog-io/daylog/internal/source"
	"github.com/daylog-io/daylog/internal/syncer"
)

// --- mocks ---

type mockConnector struct {
	name    string
	events  []source.RawEvent
	err     error
	sinceIn []time.Time // records every FetchSince window start
}

func (m *mockConnector) Name() string { return m.name }

func (m *mockConnector) FetchSince(_ context.Context, since time.Time) ([]source.RawEvent, error) {
	m.sinceIn = append(m.sinceIn, since)
	if m.err != nil {
		return nil, m.err
	}
	var out []source.RawEvent
	for _, ev := range m.events {
		if !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type memRepo struct {
	created []*domain.LogEntry
	failFor string // action whose Create fails
}

func (m *memRepo) Create(_ context.Context, e *domain.LogEntry) error {
	if m.failFor != "" && e.Action == m.failFor {
		return errors.New("insert failed")
	}
	e.ID = int64(len(m.created) + 1)
	m.created = append(m.created, e)
	return nil
}

func (m *memRepo) List(context.Context, domain.LogFilter) ([]*domain.LogEntry, error) {
	return m.created, nil
}

type memDedup struct {
	seen map[string]bool
}

func (m *memDedup) Seen(_ context.Context, key string) (bool, error) { return m.seen[key], nil }

func (m *memDedup) Mark(_ context.Context, key string) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[key] = true
	return nil
}

func commitAt(sha string, ts time.Time) source.RawEvent {
	return source.RawEvent{
		Source:    domain.SourceGitHubCommit,
		RawText:   "commit " + sha,
		Action:    "GitHub Commit",
		Project:   "me/daylog",
		Metadata:  map[string]string{"sha": sha, "repo": "me/daylog"},
		Timestamp: ts,
	}
}

func newCoordinator(repo domain.LogRepository, dedup ingest.DedupIndex, lookback time.Duration) *syncer.Coordinator {
	n := ingest.NewNormalizer(&oracle.Stub{})
	p := ingest.NewPipeline(repo, dedup, nil)
	return syncer.NewCoordinator(n, p, lookback)
}

// --- tests ---

func TestRunCycleStoresFetchedEvents(t *testing.T) {
	now := time.Now()
	repo := &memRepo{}
	conn := &mockConnector{name: "github", events: []source.RawEvent{
		commitAt("aaa", now.Add(-2*time.Hour)),
		commitAt("bbb", now.Add(-1*time.Hour)),
	}}

	c := newCoordinator(repo, nil, 24*time.Hour)
	res := c.RunCycle(context.Background(), conn)

	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Stored)
	assert.Len(t, repo.created, 2)
	assert.Equal(t, "GitHub Commit", repo.created[0].Action)
}

func TestRunCycleWindowIsLookbackBounded(t *testing.T) {
	repo := &memRepo{}
	conn := &mockConnector{name: "github"}

	c := newCoordinator(repo, nil, 24*time.Hour)
	before := time.Now()
	c.RunCycle(context.Background(), conn)

	require.Len(t, conn.sinceIn, 1)
	got := conn.sinceIn[0]
	assert.WithinDuration(t, before.Add(-24*time.Hour), got, time.Minute)
}

// Running a second cycle with no new upstream events yields no new records,
// and the second cycle's window starts at or after the first's watermark.
func TestRunCycleIdempotent(t *testing.T) {
	now := time.Now()
	repo := &memRepo{}
	dedup := &memDedup{}
	conn := &mockConnector{name: "github", events: []source.RawEvent{
		commitAt("aaa", now.Add(-2*time.Hour)),
	}}

	c := newCoordinator(repo, dedup, 24*time.Hour)

	first := c.RunCycle(context.Background(), conn)
	assert.Equal(t, 1, first.Stored)

	second := c.RunCycle(context.Background(), conn)
	assert.Equal(t, 0, second.Stored)
	assert.Len(t, repo.created, 1)

	// Watermark monotonicity: second since >= first cycle's start.
	require.Len(t, conn.sinceIn, 2)
	assert.False(t, conn.sinceIn[1].Before(conn.sinceIn[0]))
	assert.True(t, conn.sinceIn[1].After(now.Add(-time.Minute)))
}

// Even without a dedup index, the watermark keeps already-synced events out
// of the next window.
func TestRunCycleWatermarkExcludesOldEvents(t *testing.T) {
	now := time.Now()
	repo := &memRepo{}
	conn := &mockConnector{name: "github", events: []source.RawEvent{
		commitAt("aaa", now.Add(-2*time.Hour)),
	}}

	c := newCoordinator(repo, nil, 24*time.Hour)
	c.RunCycle(context.Background(), conn)
	res := c.RunCycle(context.Background(), conn)

	assert.Equal(t, 0, res.Fetched)
	assert.Len(t, repo.created, 1)
}

func TestRunCycleFetchFailureLeavesWatermark(t *testing.T) {
	repo := &memRepo{}
	conn := &mockConnector{name: "github", err: errors.New("network down")}

	c := newCoordinator(repo, nil, 24*time.Hour)
	res := c.RunCycle(context.Background(), conn)

	assert.Equal(t, syncer.CycleResult{}, res)
	assert.True(t, c.WatermarkFor("github").Last.IsZero())
}

func TestRunCyclePersistenceFailureDoesNotAbortBatch(t *testing.T) {
	now := time.Now()
	repo := &memRepo{failFor: "GitHub PR (open)"}
	conn := &mockConnector{name: "github", events: []source.RawEvent{
		commitAt("aaa", now.Add(-2*time.Hour)),
		{
			Source:    domain.SourceGitHubPR,
			RawText:   "flaky PR",
			Action:    "GitHub PR (open)",
			Metadata:  map[string]string{"number": "9", "repo": "me/daylog"},
			Timestamp: now.Add(-90 * time.Minute),
		},
		commitAt("bbb", now.Add(-1*time.Hour)),
	}}

	c := newCoordinator(repo, nil, 24*time.Hour)
	res := c.RunCycle(context.Background(), conn)

	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Stored)
	assert.Equal(t, 1, res.Skipped)
	// Batch completed, so the watermark still advances.
	assert.False(t, c.WatermarkFor("github").Last.IsZero())
}

func TestWatermarkIsPerConnector(t *testing.T) {
	c := newCoordinator(&memRepo{}, nil, time.Hour)
	a := c.WatermarkFor("github")
	b := c.WatermarkFor("other")
	a.Last = time.Now()
	assert.True(t, b.Last.IsZero())
	assert.Same(t, a, c.WatermarkFor("github"))
}
