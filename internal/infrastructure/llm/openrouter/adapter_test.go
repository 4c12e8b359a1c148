package openrouter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/logger"
)

const completion = `{"id":"gen-1","object":"chat.completion","model":"test/model","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`

func TestConvertMessages(t *testing.T) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: "You fill forms."},
		{Role: entity.RoleUser, Content: "page"},
		{Role: entity.RoleAssistant, Content: `{"action":"finish"}`},
	}

	result := convertMessages(messages)

	require.Len(t, result, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, result[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, result[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, result[2].Role)
	assert.Equal(t, `{"action":"finish"}`, result[2].Content)
}

type chatServer struct {
	*httptest.Server
	calls     atomic.Int32
	throttled int32
	body      string
}

func newChatServer(t *testing.T, throttled int32, reply string) *chatServer {
	t.Helper()
	cs := &chatServer{throttled: throttled}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		cs.body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		if cs.calls.Add(1) <= cs.throttled {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_exceeded","code":429}}`)
			return
		}
		if reply == "" {
			fmt.Fprint(w, `{"id":"gen-1","object":"chat.completion","choices":[]}`)
			return
		}
		fmt.Fprintf(w, completion, reply)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newAdapter(url string, retries int) *OpenRouterAdapter {
	cfg := DefaultConfig("test-key", "test/model")
	cfg.BaseURL = url
	cfg.MaxRetries = retries
	cfg.RetryDelay = time.Millisecond
	cfg.Logger = logger.NewNop()
	return NewOpenRouterAdapter(cfg)
}

func chatRequest() output.ChatRequest {
	return output.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "hello"}},
		Temperature: 0.2,
	}
}

func TestChat(t *testing.T) {
	server := newChatServer(t, 0, `{"action":"finish"}`)
	adapter := newAdapter(server.URL, 0)

	resp, err := adapter.Chat(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Equal(t, `{"action":"finish"}`, resp.Message.Content)
	assert.Contains(t, server.body, `"model":"test/model"`)
	assert.Contains(t, server.body, `"content":"hello"`)
}

func TestChat_RetriesOnRateLimit(t *testing.T) {
	server := newChatServer(t, 2, "ok")
	adapter := newAdapter(server.URL, 3)

	resp, err := adapter.Chat(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)
	assert.Equal(t, int32(3), server.calls.Load())
}

func TestChat_RetriesExhausted(t *testing.T) {
	server := newChatServer(t, 10, "ok")
	adapter := newAdapter(server.URL, 1)

	_, err := adapter.Chat(context.Background(), chatRequest())
	require.Error(t, err)
	assert.True(t, isRateLimited(err))
	assert.Equal(t, int32(2), server.calls.Load())
}

func TestChat_NoChoices(t *testing.T) {
	server := newChatServer(t, 0, "")
	adapter := newAdapter(server.URL, 0)

	_, err := adapter.Chat(context.Background(), chatRequest())
	assert.EqualError(t, err, "no choices in response")
}

func TestChat_CancelDuringBackoff(t *testing.T) {
	server := newChatServer(t, 10, "ok")
	cfg := DefaultConfig("test-key", "test/model")
	cfg.BaseURL = server.URL
	cfg.RetryDelay = time.Hour
	adapter := NewOpenRouterAdapter(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.Chat(ctx, chatRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewOpenRouterAdapter_Defaults(t *testing.T) {
	a := NewOpenRouterAdapter(Config{APIKey: "k", Model: "m", MaxRetries: -1, RequestsPerSecond: 2})
	assert.Equal(t, 0, a.maxRetries)
	assert.Equal(t, defaultRetryDelay, a.retryDelay)
	require.NotNil(t, a.limiter)
	assert.InDelta(t, 2.0, float64(a.limiter.Limit()), 1e-9)
}
