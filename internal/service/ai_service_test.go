package service

import (
	"context"
	"encoding/json"
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIService(url string) *AIService {
	return NewAIService(config.AIConfig{
		BaseURL:        url,
		APIKey:         "sk-test",
		Model:          "test-model",
		TimeoutSeconds: 5,
		MaxRetries:     2,
		MaxTokens:      256,
	}).SetRetryWait(time.Millisecond, 5*time.Millisecond)
}

func TestAIService_Complete(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"Bonds\"}"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestAIService(srv.URL).Complete(context.Background(), "outline please", CompletionOptions{
		System:         "sys",
		ResponseFormat: FormatJSON,
		Purpose:        "course_outline",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Bonds"}`, out)

	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])
	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "sys", msgs[0].(map[string]interface{})["content"])
}

func TestAIService_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestAIService(srv.URL).Complete(context.Background(), "q", CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 3, hits.Load())
}

func TestAIService_FailuresAreGenerationUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		},
		"error body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := newTestAIService(srv.URL).Complete(context.Background(), "q", CompletionOptions{})
			assert.ErrorIs(t, err, util.ErrGenerationUnavailable)
		})
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// each rune is three bytes; cutting at four would split the second one
	out := truncate("收益率", 4)
	assert.Equal(t, "收...", out)
	assert.True(t, utf8.ValidString(out))

	long := strings.Repeat("€", 200)
	out = truncate(long, 301)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), 301+len("..."))
}
