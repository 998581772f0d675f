package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/domain"
)

// ErrDuplicate is returned by Ingest when the entry's stable identifier has
// already been seen by the dedup index.
var ErrDuplicate = errors.New("ingest: duplicate entry")

// DedupIndex remembers stable source identifiers across re-sync cycles so a
// restart's lookback re-fetch does not create duplicate rows.
type DedupIndex interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// FeedPublisher broadcasts newly created entries to live-feed subscribers.
type FeedPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// FeedChannel is the pub/sub channel carrying newly created log entries.
const FeedChannel = "daylog:feed"

// Pipeline is the single store-forwarding path shared by every source:
// manual API calls, the chat listener, and the sync coordinator all end
// here, so dedup and live-feed publication exist exactly once.
type Pipeline struct {
	repo  domain.LogRepository
	dedup DedupIndex    // nil disables deduplication
	feed  FeedPublisher // nil disables the live feed
}

// NewPipeline creates a Pipeline. dedup and feed may be nil.
func NewPipeline(repo domain.LogRepository, dedup DedupIndex, feed FeedPublisher) *Pipeline {
	return &Pipeline{repo: repo, dedup: dedup, feed: feed}
}

// Ingest persists the entry and publishes it to the live feed. Entries with
// a stable identifier already present in the dedup index return
// ErrDuplicate without touching the store.
func (p *Pipeline) Ingest(ctx context.Context, e *domain.LogEntry) (*domain.LogEntry, error) {
	key := e.DedupKey()

	if p.dedup != nil && key != "" {
		seen, err := p.dedup.Seen(ctx, key)
		if err != nil {
			// The index is advisory; a broken index degrades to
			// forwarding everything, never to dropping data.
			log.Warn().Err(err).Str("key", key).Msg("ingest: dedup lookup failed, forwarding anyway")
		} else if seen {
			return nil, fmt.Errorf("ingest.Pipeline.Ingest: key %s: %w", key, ErrDuplicate)
		}
	}

	if err := p.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("ingest.Pipeline.Ingest: create: %w", err)
	}

	if p.dedup != nil && key != "" {
		if err := p.dedup.Mark(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("ingest: dedup mark failed")
		}
	}

	if p.feed != nil {
		payload, err := json.Marshal(feedEvent(e))
		if err == nil {
			if pubErr := p.feed.Publish(ctx, FeedChannel, payload); pubErr != nil {
				log.Debug().Err(pubErr).Msg("ingest: feed publish failed")
			}
		}
	}

	return e, nil
}

// feedEvent is the wire shape broadcast on the live feed.
func feedEvent(e *domain.LogEntry) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp,
		"source":    e.Source,
		"action":    e.Action,
		"project":   e.Project,
		"duration":  e.DurationMinutes,
		"tags":      e.Tags,
	}
}
