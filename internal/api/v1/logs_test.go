package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/daylog-io/daylog/internal/api/v1"
	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/oracle"
	"github.com/daylog-io/daylog/internal/stats"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockLogRepo struct {
	createFunc func(ctx context.Context, e *domain.LogEntry) error
	listFunc   func(ctx context.Context, f domain.LogFilter) ([]*domain.LogEntry, error)
}

func (m *mockLogRepo) Create(ctx context.Context, e *domain.LogEntry) error {
	return m.createFunc(ctx, e)
}

func (m *mockLogRepo) List(ctx context.Context, f domain.LogFilter) ([]*domain.LogEntry, error) {
	return m.listFunc(ctx, f)
}

type mockDataStore struct {
	logs domain.LogRepository
}

func (m *mockDataStore) Logs() domain.LogRepository { return m.logs }

type mockStats struct {
	summarizeFunc func(ctx context.Context, windowDays int) (*stats.Report, error)
}

func (m *mockStats) Summarize(ctx context.Context, windowDays int) (*stats.Report, error) {
	return m.summarizeFunc(ctx, windowDays)
}

func registerWithRepo(t *testing.T, repo domain.LogRepository, sp v1.StatsProvider) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	n := ingest.NewNormalizer(&oracle.Stub{Err: errors.New("oracle offline")})
	p := ingest.NewPipeline(repo, nil, nil)
	if sp == nil {
		sp = stats.NewAggregator(repo)
	}
	v1.RegisterLogRoutes(api, &mockDataStore{logs: repo}, n, p, sp)
	return api
}

// ---------------------------------------------------------------------------
// POST /logs
// ---------------------------------------------------------------------------

func TestCreateLog(t *testing.T) {
	t.Parallel()

	t.Run("structured_entry", func(t *testing.T) {
		t.Parallel()

		var created *domain.LogEntry
		repo := &mockLogRepo{createFunc: func(_ context.Context, e *domain.LogEntry) error {
			e.ID = 7
			created = e
			return nil
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Post("/logs", map[string]any{
			"action":           "wrote report",
			"project":          "acme",
			"duration_minutes": 90,
			"tags":             []string{"writing"},
			"source":           "cli",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		require.NotNil(t, created)
		assert.Equal(t, domain.SourceCLI, created.Source)
		assert.Equal(t, "wrote report", created.Action)
		assert.Equal(t, "acme", created.Project)

		var out domain.LogEntry
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Equal(t, int64(7), out.ID)
	})

	t.Run("free_text_falls_back_when_oracle_down", func(t *testing.T) {
		t.Parallel()

		var created *domain.LogEntry
		repo := &mockLogRepo{createFunc: func(_ context.Context, e *domain.LogEntry) error {
			created = e
			return nil
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Post("/logs", map[string]any{
			"text": "pair programming for 2 hours",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		require.NotNil(t, created)
		assert.Equal(t, domain.SourceAPI, created.Source)
		assert.Equal(t, "pair programming for 2 hours", created.Action)
		require.NotNil(t, created.DurationMinutes)
		assert.InDelta(t, 120, *created.DurationMinutes, 0.001)
	})

	t.Run("free_text_keeps_explicit_fields", func(t *testing.T) {
		t.Parallel()

		var created *domain.LogEntry
		repo := &mockLogRepo{createFunc: func(_ context.Context, e *domain.LogEntry) error {
			created = e
			return nil
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Post("/logs", map[string]any{
			"text":             "long walk by the river",
			"duration_minutes": 45,
			"tags":             []string{"outdoors"},
			"project":          "health",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		require.NotNil(t, created)
		require.NotNil(t, created.DurationMinutes)
		assert.InDelta(t, 45, *created.DurationMinutes, 0.001)
		assert.Equal(t, []string{"outdoors"}, created.Tags)
		assert.Equal(t, "health", created.Project)
	})

	t.Run("whitespace_text_rejected", func(t *testing.T) {
		t.Parallel()

		api := registerWithRepo(t, &mockLogRepo{}, nil)
		resp := api.Post("/logs", map[string]any{"text": "   "})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("empty_body_rejected", func(t *testing.T) {
		t.Parallel()

		api := registerWithRepo(t, &mockLogRepo{}, nil)
		resp := api.Post("/logs", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("store_failure_is_500", func(t *testing.T) {
		t.Parallel()

		repo := &mockLogRepo{createFunc: func(context.Context, *domain.LogEntry) error {
			return errors.New("connection refused")
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Post("/logs", map[string]any{"action": "x"})
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /logs
// ---------------------------------------------------------------------------

func TestListLogs(t *testing.T) {
	t.Parallel()

	t.Run("happy_path_passes_filter", func(t *testing.T) {
		t.Parallel()

		var gotFilter domain.LogFilter
		repo := &mockLogRepo{listFunc: func(_ context.Context, f domain.LogFilter) ([]*domain.LogEntry, error) {
			gotFilter = f
			return []*domain.LogEntry{
				{ID: 1, Timestamp: time.Now().UTC(), Source: domain.SourceCLI, RawText: "x", Action: "x"},
			}, nil
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Get("/logs?source=cli&limit=10&offset=5")
		require.Equal(t, http.StatusOK, resp.Code)

		assert.Equal(t, domain.SourceCLI, gotFilter.Source)
		assert.Equal(t, 10, gotFilter.Limit)
		assert.Equal(t, 5, gotFilter.Offset)

		var out []domain.LogEntry
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Len(t, out, 1)
	})

	t.Run("unknown_source_rejected", func(t *testing.T) {
		t.Parallel()

		api := registerWithRepo(t, &mockLogRepo{}, nil)
		resp := api.Get("/logs?source=carrier_pigeon")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("empty_result_is_json_array", func(t *testing.T) {
		t.Parallel()

		repo := &mockLogRepo{listFunc: func(context.Context, domain.LogFilter) ([]*domain.LogEntry, error) {
			return nil, nil
		}}
		api := registerWithRepo(t, repo, nil)

		resp := api.Get("/logs")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, "[]", resp.Body.String())
	})
}

// ---------------------------------------------------------------------------
// GET /logs/stats
// ---------------------------------------------------------------------------

func TestGetLogStats(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		sp := &mockStats{summarizeFunc: func(_ context.Context, windowDays int) (*stats.Report, error) {
			assert.Equal(t, 30, windowDays)
			return &stats.Report{
				WindowDays:           30,
				TotalCount:           3,
				TotalDurationMinutes: 120,
				CountsBySource:       map[string]int{"cli": 2, "telegram": 1},
			}, nil
		}}
		api := registerWithRepo(t, &mockLogRepo{}, sp)

		resp := api.Get("/logs/stats?window_days=30")
		require.Equal(t, http.StatusOK, resp.Code)

		var out stats.Report
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		assert.Equal(t, 3, out.TotalCount)
		assert.InDelta(t, 120, out.TotalDurationMinutes, 0.001)
	})

	t.Run("failure_is_500", func(t *testing.T) {
		t.Parallel()

		sp := &mockStats{summarizeFunc: func(context.Context, int) (*stats.Report, error) {
			return nil, errors.New("db down")
		}}
		api := registerWithRepo(t, &mockLogRepo{}, sp)

		resp := api.Get("/logs/stats")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
