package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/daylog-io/daylog/internal/api/v1"
	"github.com/daylog-io/daylog/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterLogRoutes(api, deps.Store, deps.Normalizer, deps.Pipeline, deps.Stats)
	v1.RegisterQueryRoutes(api, deps.Reviewer)
	v1.RegisterSyncRoutes(api, deps.Sync)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/feed", hub.ServeFeed)
}
