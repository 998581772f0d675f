package slack_test

import (
	"context"
	"errors"
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-io/daylog/internal/messenger"
	"github.com/daylog-io/daylog/internal/messenger/slack"
)

type mockAPI struct {
	postFunc func(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

func (m *mockAPI) PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error) {
	return m.postFunc(channelID, options...)
}

func TestSendMessage(t *testing.T) {
	var gotChannel string
	api := &mockAPI{postFunc: func(channelID string, _ ...slacklib.MsgOption) (string, string, error) {
		gotChannel = channelID
		return channelID, "1724900000.000100", nil
	}}

	m := slack.NewMessenger(api)
	id, err := m.SendMessage(context.Background(), "C123", "daily review")
	require.NoError(t, err)

	assert.Equal(t, messenger.MessageID("1724900000.000100"), id)
	assert.Equal(t, "C123", gotChannel)
}

func TestSendMessageError(t *testing.T) {
	api := &mockAPI{postFunc: func(string, ...slacklib.MsgOption) (string, string, error) {
		return "", "", errors.New("channel_not_found")
	}}

	m := slack.NewMessenger(api)
	_, err := m.SendMessage(context.Background(), "C404", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestPlatform(t *testing.T) {
	assert.Equal(t, "slack", slack.NewMessenger(nil).Platform())
}
