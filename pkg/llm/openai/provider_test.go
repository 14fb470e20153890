package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"llm-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "first"}},
    {"index": 1, "finish_reason": "stop", "message": {"role": "assistant", "content": "Use ` + "```js\\nfetch()\\n```" + `"}}
  ],
  "usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

func TestCompleteUsesLastChoiceAndUsage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	p := NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Timeout: 2 * time.Second})
	completion, err := p.Complete(context.Background(), []llm.Message{
		{Role: "system", Content: "docs"},
		{Role: "user", Content: "how do I fetch?"},
		{Role: "assistant", Content: "like this"},
		{Role: "user", Content: "again"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Use ```js\nfetch()\n```", completion.Text)
	assert.Equal(t, 42, completion.PromptTokens)
	assert.Equal(t, 7, completion.CompletionTokens)

	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 4)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-3.5-turbo", p.Model())
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"id":"x","object":"chat.completion","choices":[],"usage":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-4o-mini"})
			completion, err := p.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

			assert.Error(t, err)
			assert.Nil(t, completion)
		})
	}
}

func TestCompleteRejectsUnknownRole(t *testing.T) {
	p := NewProvider(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/"})
	_, err := p.Complete(context.Background(), []llm.Message{{Role: "tool", Content: "x"}})
	assert.ErrorContains(t, err, "unsupported role")
}
