package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/utils"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.1
	defaultMaxTokens   = 4000
	defaultMaxRetries  = 2
)

var retryBackoff = time.Second

// contentModels is the subset of genai.Models used by the provider.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Gemini provider.
type Options struct {
	Name        string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	// MaxLogLength bounds prompt and reply previews in debug logs.
	MaxLogLength int
}

// Provider sends prompts to Gemini through the Google GenAI SDK.
type Provider struct {
	models      contentModels
	name        string
	modelName   string
	temperature float32
	maxTokens   int32
	maxRetries  int
	maxLogLen   int
	logger      *zap.Logger
}

// New creates a Provider configured for the Gemini API backend.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Provider, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newProvider(client.Models, opts, log), nil
}

func newProvider(models contentModels, opts Options, log *zap.Logger) *Provider {
	p := &Provider{
		models:      models,
		name:        strings.TrimSpace(opts.Name),
		modelName:   strings.TrimSpace(opts.Model),
		temperature: float32(opts.Temperature),
		maxTokens:   int32(opts.MaxTokens),
		maxRetries:  opts.MaxRetries,
		maxLogLen:   opts.MaxLogLength,
	}

	if p.name == "" {
		p.name = "gemini"
	}
	if p.modelName == "" {
		p.modelName = defaultModel
	}
	if p.temperature <= 0 {
		p.temperature = defaultTemperature
	}
	if p.maxTokens <= 0 {
		p.maxTokens = defaultMaxTokens
	}
	if p.maxRetries <= 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.maxLogLen <= 0 {
		p.maxLogLen = 200
	}

	p.logger = logger.WithProvider(log, p.name, p.modelName)
	return p
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.modelName }

// Generate sends the prompt to Gemini and returns the concatenated candidate text.
// Rate limits and server errors are retried with backoff.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	if p == nil || p.models == nil {
		return "", errors.New("gemini provider is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	p.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, p.maxLogLen)),
	)

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.temperature),
		MaxOutputTokens:  p.maxTokens,
		ResponseMIMEType: "application/json",
	}

	attempt := 0
	output, err := utils.Retry(ctx, p.maxRetries, retryBackoff, retryable, func() (string, error) {
		attempt++
		resp, err := p.models.GenerateContent(ctx, p.modelName, genai.Text(prompt), cfg)
		if err != nil {
			p.logger.Debug("gemini generate content failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", fmt.Errorf("generate content: %w", err)
		}
		return collectText(resp)
	})
	if err != nil {
		return "", err
	}

	p.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, p.maxLogLen)),
	)

	return output, nil
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || part.Thought {
					continue
				}
				text := strings.TrimSpace(part.Text)
				if text == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryable reports whether a Gemini error is worth another attempt.
func retryable(err error) bool {
	code := 0

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	default:
		return false
	}

	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
