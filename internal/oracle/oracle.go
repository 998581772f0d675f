// Package oracle abstracts the natural-language completion service used for
// best-effort structured inference and review generation.
package oracle

import (
	"context"
	"errors"
)

// ErrDisabled marks an oracle that was never configured. Callers treat it
// like any other completion failure and fall back locally.
var ErrDisabled = errors.New("oracle: not configured")

// Client is a text-in/text-out completion oracle. Implementations must
// treat the returned text as opaque; callers own all parsing and fallback.
type Client interface {
	// Complete sends a system and user prompt and returns the model's text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Stub is a deterministic Client for tests. CompleteFunc may be nil, in
// which case Complete returns Response unconditionally.
type Stub struct {
	Response     string
	Err          error
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ Client = (*Stub)(nil)

func (s *Stub) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.CompleteFunc != nil {
		return s.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}
