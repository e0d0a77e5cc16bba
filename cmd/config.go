package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/resume-scorer/internal/fetch"
	"github.com/spigell/resume-scorer/internal/pipeline"
)

const (
	kindGemini           = "gemini"
	kindOpenAICompatible = "openai-compatible"
	kindAnthropic        = "anthropic"

	storageNone  = "none"
	storageLocal = "local"
	storageS3    = "s3"
)

type Config struct {
	Analysis  AnalysisConfig   `mapstructure:"analysis"`
	Fetch     FetchConfig      `mapstructure:"fetch"`
	Providers []ProviderConfig `mapstructure:"providers" validate:"dive"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Server    ServerConfig     `mapstructure:"server"`
}

type AnalysisConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MinTextLength int           `mapstructure:"min-text-length" validate:"gte=1"`
	PreviewLength int           `mapstructure:"preview-length" validate:"gte=1"`
	MaxLogLength  int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type FetchConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user-agent"`
	MaxChars  int           `mapstructure:"max-chars" validate:"gte=1"`
}

type ProviderConfig struct {
	Name        string            `mapstructure:"name" validate:"required"`
	Kind        string            `mapstructure:"kind" validate:"required,oneof=gemini openai-compatible anthropic"`
	Model       string            `mapstructure:"model"`
	BaseURL     string            `mapstructure:"base-url" validate:"omitempty,url"`
	APIKey      string            `mapstructure:"api-key"`
	APIKeyFile  string            `mapstructure:"api-key-file"`
	APIKeyEnv   string            `mapstructure:"api-key-env"`
	Temperature float64           `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int               `mapstructure:"max-tokens" validate:"gte=0"`
	MaxRetries  int               `mapstructure:"max-retries" validate:"gte=0"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	Headers     map[string]string `mapstructure:"headers"`
}

type StorageConfig struct {
	Backend string             `mapstructure:"backend" validate:"oneof=none local s3"`
	Local   LocalStorageConfig `mapstructure:"local"`
	S3      S3StorageConfig    `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base-url" validate:"omitempty,url"`
}

type S3StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint" validate:"omitempty,url"`
	PublicBaseURL string `mapstructure:"public-base-url" validate:"omitempty,url"`
	Prefix        string `mapstructure:"prefix"`
	PathStyle     bool   `mapstructure:"path-style"`
	AccessKeyEnv  string `mapstructure:"access-key-env"`
	SecretKeyEnv  string `mapstructure:"secret-key-env"`
}

type ServerConfig struct {
	Listen      string `mapstructure:"listen" validate:"required"`
	BodyLimitMB int    `mapstructure:"body-limit-mb" validate:"gte=1"`
	CORSOrigins string `mapstructure:"cors-origins"`
	RateLimit   int    `mapstructure:"rate-limit" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.timeout", pipeline.DefaultTimeout)
	v.SetDefault("analysis.min-text-length", pipeline.DefaultMinTextLength)
	v.SetDefault("analysis.preview-length", pipeline.DefaultPreviewLength)
	v.SetDefault("analysis.max-log-length", pipeline.DefaultMaxLogLength)

	v.SetDefault("fetch.enabled", true)
	v.SetDefault("fetch.timeout", fetch.DefaultTimeout)
	v.SetDefault("fetch.user-agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch.max-chars", fetch.DefaultMaxChars)

	v.SetDefault("storage.backend", storageNone)
	v.SetDefault("storage.local.dir", "uploads")
	v.SetDefault("storage.s3.access-key-env", "AWS_ACCESS_KEY_ID")
	v.SetDefault("storage.s3.secret-key-env", "AWS_SECRET_ACCESS_KEY")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.body-limit-mb", 10)
	v.SetDefault("server.cors-origins", "*")
	v.SetDefault("server.rate-limit", 0)
}

// defaultProviders mirrors the hosted deployment: every backend whose key is
// present in the environment takes part.
func defaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:      "gemini",
			Kind:      kindGemini,
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		{
			Name:      "openrouter",
			Kind:      kindOpenAICompatible,
			Model:     "deepseek/deepseek-r1",
			BaseURL:   "https://openrouter.ai/api/v1",
			APIKeyEnv: "OPENROUTER_API_KEY",
			Headers: map[string]string{
				"HTTP-Referer": "https://resumescore.app",
				"X-Title":      "ResumeScore",
			},
		},
		{
			Name:      "ollama",
			Kind:      kindOpenAICompatible,
			Model:     "gpt-oss:120b",
			BaseURL:   "https://ollama.com/v1",
			APIKeyEnv: "OLLAMA_API_KEY",
		},
		{
			Name:      "anthropic",
			Kind:      kindAnthropic,
			Model:     "claude-sonnet-4-5",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
	}
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if len(config.Providers) == 0 {
		config.Providers = defaultProviders()
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, ve := range validationErrors {
				messages = append(messages, fmt.Sprintf("%s: failed %q", ve.Namespace(), ve.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch config.Storage.Backend {
	case storageLocal:
		if strings.TrimSpace(config.Storage.Local.Dir) == "" {
			return errors.New("invalid config: storage.local.dir is required for the local backend")
		}
	case storageS3:
		if strings.TrimSpace(config.Storage.S3.Bucket) == "" {
			return errors.New("invalid config: storage.s3.bucket is required for the s3 backend")
		}
	}

	seen := make(map[string]struct{}, len(config.Providers))
	for _, p := range config.Providers {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("invalid config: duplicate provider name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return nil
}
