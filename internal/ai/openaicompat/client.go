// Package openaicompat talks to any backend exposing the OpenAI chat
// completions API: OpenRouter, Ollama cloud and OpenAI itself.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/logger"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 4000
	defaultMaxRetries  = 2
)

var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Options configures a chat-completions provider.
type Options struct {
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
	// Headers are sent with every request, e.g. OpenRouter's HTTP-Referer and X-Title.
	Headers map[string]string
	// MaxLogLength bounds prompt and reply previews in debug logs.
	MaxLogLength int
}

// StatusError is returned for non-success responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completions returned status %d: %s", e.Code, e.Body)
}

// Unwrap lets callers match ai.ErrStatus.
func (e *StatusError) Unwrap() error {
	return ai.ErrStatus
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Provider sends prompts to a chat-completions endpoint.
type Provider struct {
	client      *resty.Client
	name        string
	model       string
	temperature float64
	maxTokens   int
	maxLogLen   int
	logger      *zap.Logger
}

// New validates opts and returns a Provider.
func New(opts Options, log *zap.Logger) (*Provider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api key is required", opts.Name)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("%s model is required", opts.Name)
	}

	p := &Provider{
		name:        strings.TrimSpace(opts.Name),
		model:       model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		maxLogLen:   opts.MaxLogLength,
	}
	if p.name == "" {
		p.name = "openai-compatible"
	}
	if p.temperature <= 0 {
		p.temperature = defaultTemperature
	}
	if p.maxTokens <= 0 {
		p.maxTokens = defaultMaxTokens
	}
	if p.maxLogLen <= 0 {
		p.maxLogLen = 200
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultMaxRetries
	}

	p.logger = logger.WithProvider(log, p.name, p.model)

	p.client = resty.New().
		SetLogger(p.logger.Sugar()).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeaders(opts.Headers).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return p, nil
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

// Generate posts the prompt as a single user message and returns the first choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	p.logger.Debug("chat completion request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, p.maxLogLen)),
	)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       p.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: p.temperature,
			MaxTokens:   p.maxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if !resp.IsSuccess() {
		return "", &StatusError{Code: resp.StatusCode(), Body: logger.TruncateForLog(resp.String(), p.maxLogLen)}
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content").String()
	content = strings.TrimSpace(reasoningBlock.ReplaceAllString(content, ""))
	if content == "" {
		return "", fmt.Errorf("%s: %w", p.name, ai.ErrEmptyReply)
	}

	p.logger.Debug("chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(content)),
		zap.String("response_preview", logger.TruncateForLog(content, p.maxLogLen)),
		zap.String("finish_reason", gjson.GetBytes(resp.Body(), "choices.0.finish_reason").String()),
	)

	return content, nil
}
