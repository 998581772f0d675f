// Package ws streams newly ingested log entries to WebSocket clients.
package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/ingest"
	redisstore "github.com/daylog-io/daylog/internal/store/redis"
)

// Hub fans Redis feed events out to WebSocket connections.
type Hub struct {
	pubsub *redisstore.Client
}

// NewHub creates a WebSocket hub backed by Redis pub/sub.
func NewHub(pubsub *redisstore.Client) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeFeed handles WebSocket connections for the live entry feed. Each
// connection gets its own subscription to the ingest feed channel; events
// are forwarded as text frames until the client disconnects.
func (h *Hub) ServeFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, ingest.FeedChannel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
