// Package v1 exposes the HTTP API surface used by the CLI client and any
// other push-channel integrations.
package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/stats"
)

type CreateLogInput struct {
	Body struct {
		Text            string    `json:"text,omitempty" doc:"Free-form activity text to normalize"`
		Action          string    `json:"action,omitempty" maxLength:"500" doc:"Explicit action, skips inference"`
		Project         string    `json:"project,omitempty" doc:"Project name"`
		DurationMinutes *float64  `json:"duration_minutes,omitempty" minimum:"0" doc:"Duration in minutes"`
		Tags            []string  `json:"tags,omitempty" doc:"Free-form tags"`
		Timestamp       time.Time `json:"timestamp,omitempty" doc:"When the activity happened, defaults to now"`
		Source          string    `json:"source,omitempty" enum:"cli,api" doc:"Input channel, defaults to api"`
	}
}

type CreateLogOutput struct {
	Body *domain.LogEntry
}

type ListLogsInput struct {
	Source string    `query:"source" doc:"Filter by input channel"`
	Start  time.Time `query:"start" doc:"Inclusive lower timestamp bound"`
	End    time.Time `query:"end" doc:"Inclusive upper timestamp bound"`
	Limit  int       `query:"limit" minimum:"1" maximum:"1000" doc:"Page size, defaults to 100"`
	Offset int       `query:"offset" minimum:"0" doc:"Page offset"`
}

type ListLogsOutput struct {
	Body []*domain.LogEntry
}

type StatsInput struct {
	WindowDays int `query:"window_days" minimum:"1" maximum:"365" doc:"Trailing window in days, defaults to 7"`
}

type StatsOutput struct {
	Body *stats.Report
}

func RegisterLogRoutes(api huma.API, store DataStore, normalizer *ingest.Normalizer, pipeline *ingest.Pipeline, statsProvider StatsProvider) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-log",
		Method:        http.MethodPost,
		Path:          "/logs",
		Summary:       "Record an activity log entry",
		Tags:          []string{"Logs"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateLogInput) (*CreateLogOutput, error) {
		source := domain.Source(input.Body.Source)
		if source == "" {
			source = domain.SourceAPI
		}

		var entry *domain.LogEntry
		if input.Body.Action == "" && strings.TrimSpace(input.Body.Text) != "" {
			entry = normalizer.FromText(ctx, source, input.Body.Text,
				ingest.WithTimestamp(input.Body.Timestamp.UTC()),
				ingest.WithProject(input.Body.Project),
				ingest.WithDuration(input.Body.DurationMinutes),
				ingest.WithTags(input.Body.Tags),
			)
		} else {
			rawText := input.Body.Text
			if rawText == "" {
				rawText = input.Body.Action
			}
			var err error
			entry, err = normalizer.Direct(source, rawText, input.Body.Action,
				input.Body.Project, input.Body.DurationMinutes, input.Body.Tags, nil, input.Body.Timestamp)
			if err != nil {
				return nil, huma.Error422UnprocessableEntity("invalid log entry", err)
			}
		}

		stored, err := pipeline.Ingest(ctx, entry)
		if err != nil {
			if errors.Is(err, ingest.ErrDuplicate) {
				return nil, huma.Error409Conflict("entry already recorded")
			}
			return nil, huma.Error500InternalServerError("failed to store log entry", err)
		}

		return &CreateLogOutput{Body: stored}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/logs",
		Summary:     "List log entries, newest first",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *ListLogsInput) (*ListLogsOutput, error) {
		source := domain.Source(input.Source)
		if source != "" && !domain.ValidSource(source) {
			return nil, huma.Error422UnprocessableEntity("unknown source " + input.Source)
		}

		entries, err := store.Logs().List(ctx, domain.LogFilter{
			Source: source,
			Start:  input.Start,
			End:    input.End,
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list log entries", err)
		}
		if entries == nil {
			entries = make([]*domain.LogEntry, 0)
		}

		return &ListLogsOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-log-stats",
		Method:      http.MethodGet,
		Path:        "/logs/stats",
		Summary:     "Summarize activity over a trailing window",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *StatsInput) (*StatsOutput, error) {
		rep, err := statsProvider.Summarize(ctx, input.WindowDays)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to compute stats", err)
		}
		return &StatsOutput{Body: rep}, nil
	})
}
