// Package source defines the event-source abstraction feeding the ingestion
// pipeline. Poll-based connectors (GitHub) implement Connector and are
// driven by the sync coordinator; push-based channels (the chat listener)
// hand entries to the pipeline directly and need no watermark.
package source

import (
	"context"
	"time"

	"github.com/daylog-io/daylog/internal/domain"
)

// RawEvent is a partially-structured event fetched from an input channel.
// It carries everything the direct normalization path needs.
type RawEvent struct {
	Source    domain.Source
	RawText   string
	Action    string
	Project   string
	Tags      []string
	Metadata  map[string]string
	Timestamp time.Time // zero means "use ingestion time"
}

// Connector is a poll-based event source. FetchSince returns events created
// at or after since. Implementations must swallow per-sub-fetch failures
// (log and return what succeeded) rather than fail the whole call; an error
// return means nothing at all could be fetched.
type Connector interface {
	// Name identifies the connector in logs and watermark state.
	Name() string
	FetchSince(ctx context.Context, since time.Time) ([]RawEvent, error)
}
