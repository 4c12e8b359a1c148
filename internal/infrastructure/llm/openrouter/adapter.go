package openrouter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

var _ output.LLMPort = (*OpenRouterAdapter)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultBaseURL    = "https://openrouter.ai/api/v1"
	defaultMaxRetries = 4
	defaultRetryDelay = 3 * time.Second
)

type OpenRouterAdapter struct {
	client     *openai.Client
	model      string
	logger     output.LoggerPort
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort

	// HTTPClient carries proxy settings; nil uses http.DefaultTransport.
	HTTPClient *http.Client

	// RequestsPerSecond paces Chat calls; zero disables pacing.
	RequestsPerSecond float64

	// MaxRetries bounds retries on HTTP 429. Negative disables retrying.
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    defaultBaseURL,
		MaxRetries: defaultMaxRetries,
		RetryDelay: defaultRetryDelay,
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	var requestData struct {
		Model    string                `json:"model"`
		Messages []jsoniter.RawMessage `json:"messages"`
	}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &requestData)
	}

	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
		"model", requestData.Model,
		"messages", len(requestData.Messages),
		"bytes", len(bodyBytes),
	)

	resp, err := t.base.RoundTrip(req)

	if resp != nil {
		t.logger.Debug("HTTP Response",
			"status", resp.Status,
			"statusCode", resp.StatusCode,
		)
	}

	return resp, err
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	httpClient := &http.Client{Transport: base}
	if cfg.HTTPClient != nil {
		httpClient.Timeout = cfg.HTTPClient.Timeout
	}
	if cfg.Logger != nil {
		httpClient.Transport = &loggingTransport{base: base, logger: cfg.Logger}
	}
	config.HTTPClient = httpClient

	a := &OpenRouterAdapter{
		client:     openai.NewClientWithConfig(config),
		model:      cfg.Model,
		logger:     cfg.Logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	if a.maxRetries < 0 {
		a.maxRetries = 0
	}
	if a.retryDelay <= 0 {
		a.retryDelay = defaultRetryDelay
	}
	if cfg.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return a
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}

	var (
		resp openai.ChatCompletionResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err = a.client.CreateChatCompletion(ctx, request)
		if err == nil {
			break
		}
		if !isRateLimited(err) || attempt >= a.maxRetries {
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}

		delay := a.retryDelay * time.Duration(1<<attempt)
		if a.logger != nil {
			a.logger.Warn("Rate limited, backing off", "attempt", attempt+1, "delay", delay)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("chat completion failed: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &output.ChatResponse{
		Message: entity.Message{
			Role:    entity.RoleAssistant,
			Content: resp.Choices[0].Message.Content,
		},
	}, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}
