package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-io/daylog/internal/messenger/telegram"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":77,"chat":{"id":42}}}`))
	}))
	defer srv.Close()

	c := telegram.NewClient("secret-token", telegram.WithBaseURL(srv.URL))
	id, err := c.SendMessage(context.Background(), "42", "hello")
	require.NoError(t, err)

	assert.Equal(t, "77", id)
	assert.Equal(t, "/botsecret-token/sendMessage", gotPath)
	assert.Equal(t, "42", gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c := telegram.NewClient("t", telegram.WithBaseURL(srv.URL))
	_, err := c.SendMessage(context.Background(), "0", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestGetUpdates(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"text":"hi","chat":{"id":42},"date":1700000000}},
			{"update_id":101,"message":{"message_id":2,"text":"bye","chat":{"id":42},"date":1700000060}}
		]}`))
	}))
	defer srv.Close()

	c := telegram.NewClient("t", telegram.WithBaseURL(srv.URL))
	updates, err := c.GetUpdates(context.Background(), 100, 30*time.Second)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Equal(t, int64(100), updates[0].UpdateID)
	assert.Equal(t, "hi", updates[0].Message.Text)
	assert.Equal(t, int64(42), updates[0].Message.Chat.ID)

	assert.Equal(t, float64(100), gotBody["offset"])
	assert.Equal(t, float64(30), gotBody["timeout"])
}
