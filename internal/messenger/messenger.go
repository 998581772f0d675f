// Package messenger abstracts outbound chat delivery for reviews and
// notifications.
package messenger

import "context"

// MessageID uniquely identifies a message within a messenger platform.
type MessageID string

// Messenger abstracts communication with a chat platform (Telegram, Slack).
// Implementations handle platform-specific API calls; the interface is
// platform-agnostic.
type Messenger interface {
	// SendMessage posts a text message to a channel and returns its
	// platform message ID.
	SendMessage(ctx context.Context, channelID, text string) (MessageID, error)

	// Platform returns the messenger platform identifier (e.g. "telegram").
	Platform() string
}

// Registry is a simple map-based messenger lookup keyed by platform name.
type Registry struct {
	messengers map[string]Messenger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		messengers: make(map[string]Messenger),
	}
}

// Register adds a messenger under its own platform name.
func (r *Registry) Register(m Messenger) {
	r.messengers[m.Platform()] = m
}

// Get returns the messenger for the given platform, or false if not registered.
func (r *Registry) Get(platform string) (Messenger, bool) {
	m, ok := r.messengers[platform]
	return m, ok
}

// Platforms lists the registered platform names.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.messengers))
	for name := range r.messengers {
		names = append(names, name)
	}
	return names
}
