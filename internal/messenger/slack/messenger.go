// Package slack implements the Slack messenger for review delivery.
package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/daylog-io/daylog/internal/messenger"
)

// API abstracts the subset of the Slack client used by Messenger.
// This allows testing without real HTTP calls.
type API interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Messenger implements messenger.Messenger for Slack.
type Messenger struct {
	api API
}

var _ messenger.Messenger = (*Messenger)(nil)

// NewMessenger creates a Slack messenger with the given API client.
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendMessage posts a text message to a Slack channel and returns the message
// timestamp as MessageID.
func (m *Messenger) SendMessage(_ context.Context, channelID, text string) (messenger.MessageID, error) {
	_, ts, err := m.api.PostMessage(channelID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("slack.Messenger.SendMessage: %w", err)
	}
	return messenger.MessageID(ts), nil
}

// Platform returns the messenger platform identifier.
func (m *Messenger) Platform() string {
	return "slack"
}
