package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylog-io/daylog/internal/oracle"
)

func TestOpenAIComplete(t *testing.T) {
	t.Run("returns first choice content", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotReq map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
		}))
		defer srv.Close()

		c := oracle.NewOpenAI("sk-test", "gpt-4o-mini", oracle.WithBaseURL(srv.URL))
		out, err := c.Complete(context.Background(), "sys", "user")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
		assert.Equal(t, "/chat/completions", gotPath)
		assert.Equal(t, "Bearer sk-test", gotAuth)
		assert.Equal(t, "gpt-4o-mini", gotReq["model"])

		msgs, ok := gotReq["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := oracle.NewOpenAI("sk-test", "gpt-4o-mini", oracle.WithBaseURL(srv.URL))
		_, err := c.Complete(context.Background(), "sys", "user")
		assert.Error(t, err)
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := oracle.NewOpenAI("sk-test", "gpt-4o-mini", oracle.WithBaseURL(srv.URL))
		_, err := c.Complete(context.Background(), "sys", "user")
		assert.Error(t, err)
	})
}

func TestStub(t *testing.T) {
	s := &oracle.Stub{Response: "fixed"}
	out, err := s.Complete(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
}
