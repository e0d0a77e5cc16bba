package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
)

func completion(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(payload)
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "ResumeScore", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completion("<think>weighing {the} rubric</think>\n```json\n{\"score\": 72}\n```")))
	}))
	defer srv.Close()

	p, err := New(Options{
		Name:    "openrouter",
		BaseURL: srv.URL + "/api/v1/",
		APIKey:  "secret",
		Model:   "deepseek/deepseek-r1",
		Headers: map[string]string{"X-Title": "ResumeScore"},
	}, zap.NewNop())
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "rubric prompt")
	require.NoError(t, err)

	assert.Equal(t, "```json\n{\"score\": 72}\n```", text)
	assert.Equal(t, "deepseek/deepseek-r1", got.Model)
	assert.Equal(t, defaultTemperature, got.Temperature)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "rubric prompt"}, got.Messages[0])
	assert.Equal(t, "openrouter", p.Name())
	assert.Equal(t, "deepseek/deepseek-r1", p.Model())
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completion(`{"score": 60}`)))
	}))
	defer srv.Close()

	p, err := New(Options{Name: "ollama", BaseURL: srv.URL, APIKey: "k", Model: "gpt-oss:120b", MaxRetries: 1}, zap.NewNop())
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"score": 60}`, text)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := New(Options{Name: "openai", BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini", MaxRetries: -1}, zap.NewNop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.True(t, errors.Is(err, ai.ErrStatus))
}

func TestGenerateEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p, err := New(Options{BaseURL: srv.URL, APIKey: "k", Model: "m"}, zap.NewNop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ai.ErrEmptyReply)
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string]Options{
		"missing base url": {APIKey: "k", Model: "m"},
		"missing key":      {BaseURL: "http://localhost", Model: "m"},
		"missing model":    {BaseURL: "http://localhost", APIKey: "k"},
	} {
		if _, err := New(opts, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
