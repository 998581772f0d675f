package telegram

import (
	"context"
	"fmt"

	"github.com/daylog-io/daylog/internal/messenger"
)

// API abstracts the subset of the Bot API used for outbound delivery.
// This allows testing without real HTTP calls.
type API interface {
	SendMessage(ctx context.Context, chatID, text string) (string, error)
}

// Messenger implements messenger.Messenger for Telegram.
type Messenger struct {
	api API
}

var _ messenger.Messenger = (*Messenger)(nil)

// NewMessenger creates a Telegram messenger backed by the given API client.
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendMessage posts a text message to a Telegram chat. The channel ID is the
// numeric chat ID as a string.
func (m *Messenger) SendMessage(ctx context.Context, channelID, text string) (messenger.MessageID, error) {
	msgID, err := m.api.SendMessage(ctx, channelID, text)
	if err != nil {
		return "", fmt.Errorf("telegram.Messenger.SendMessage: %w", err)
	}
	return messenger.MessageID(msgID), nil
}

// Platform returns the messenger platform identifier.
func (m *Messenger) Platform() string {
	return "telegram"
}
