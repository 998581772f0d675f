package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/daylog-io/daylog/internal/syncer"
)

// SyncTrigger runs one sync cycle on demand. nil when no poll connector is
// configured.
type SyncTrigger func(ctx context.Context) syncer.CycleResult

type SyncOutput struct {
	Body syncer.CycleResult
}

func RegisterSyncRoutes(api huma.API, trigger SyncTrigger) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-sync",
		Method:      http.MethodPost,
		Path:        "/sync",
		Summary:     "Run a sync cycle against configured external sources now",
		Tags:        []string{"Sync"},
	}, func(ctx context.Context, _ *struct{}) (*SyncOutput, error) {
		if trigger == nil {
			return nil, huma.Error503ServiceUnavailable("no external source configured")
		}
		return &SyncOutput{Body: trigger(ctx)}, nil
	})
}
