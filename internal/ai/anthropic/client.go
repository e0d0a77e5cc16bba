// Package anthropic adapts the Anthropic Messages API to the provider contract.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/logger"
)

const (
	defaultModel       = "claude-sonnet-4-5"
	defaultTemperature = 0.1
	defaultMaxTokens   = 4000
	defaultMaxRetries  = 2
	defaultTimeout     = 60 * time.Second
)

// Options configures an Anthropic provider.
type Options struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
	// MaxLogLength bounds prompt and reply previews in debug logs.
	MaxLogLength int
}

// Provider sends prompts to Claude models.
type Provider struct {
	client      sdk.Client
	name        string
	model       string
	temperature float64
	maxTokens   int64
	maxLogLen   int
	logger      *zap.Logger
}

// New returns a Provider authenticated with opts.APIKey.
func New(opts Options, log *zap.Logger) (*Provider, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	p := &Provider{
		name:        strings.TrimSpace(opts.Name),
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		maxTokens:   int64(opts.MaxTokens),
		maxLogLen:   opts.MaxLogLength,
	}
	if p.name == "" {
		p.name = "anthropic"
	}
	if p.model == "" {
		p.model = defaultModel
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

	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultMaxRetries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(retries),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}

	p.client = sdk.NewClient(requestOpts...)
	p.logger = logger.WithProvider(log, p.name, p.model)

	return p, nil
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

// Generate sends the prompt as one user message and joins the text blocks of the reply.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	p.logger.Debug("anthropic messages request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, p.maxLogLen)),
	)

	message, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: sdk.Float(p.temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var builder strings.Builder
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.Text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("anthropic api returned empty response")
	}

	p.logger.Debug("anthropic messages response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, p.maxLogLen)),
		zap.String("stop_reason", string(message.StopReason)),
	)

	return output, nil
}
