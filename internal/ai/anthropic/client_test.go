package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "Here is the evaluation:\n"},
				{"type": "text", "text": "{\"score\": 81}"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p, err := New(Options{Name: "claude", APIKey: "test-key", BaseURL: srv.URL, MaxRetries: -1}, zap.NewNop())
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "rubric prompt")
	require.NoError(t, err)

	assert.Equal(t, "Here is the evaluation:\n{\"score\": 81}", text)
	assert.Equal(t, "claude", p.Name())
	assert.Equal(t, defaultModel, p.Model())

	assert.Equal(t, defaultModel, body["model"])
	assert.EqualValues(t, defaultMaxTokens, body["max_tokens"])
	assert.InDelta(t, defaultTemperature, body["temperature"], 1e-9)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	p, err := New(Options{APIKey: "k", BaseURL: srv.URL, MaxRetries: -1}, zap.NewNop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Options{}, nil)
	assert.Error(t, err)
}
