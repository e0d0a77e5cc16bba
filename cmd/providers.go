package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/ai/anthropic"
	"github.com/spigell/resume-scorer/internal/ai/gemini"
	"github.com/spigell/resume-scorer/internal/ai/openaicompat"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/secrets"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the LLM providers that will take part in the analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listProviders(cmd)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

// providerStatus describes the outcome of resolving one configured provider.
type providerStatus struct {
	Config ProviderConfig
	Err    error
}

// buildProviders resolves keys and constructs a client per configured provider.
// Providers without a usable key are skipped rather than failing the run.
func buildProviders(ctx context.Context, cfgs []ProviderConfig, maxLogLength int, log *zap.Logger) ([]ai.Provider, []providerStatus) {
	log = logger.OrNop(log)

	providers := make([]ai.Provider, 0, len(cfgs))
	statuses := make([]providerStatus, 0, len(cfgs))

	for _, cfg := range cfgs {
		provider, err := buildProvider(ctx, cfg, maxLogLength, log)
		statuses = append(statuses, providerStatus{Config: cfg, Err: err})

		if err != nil {
			plog := logger.WithProvider(log, cfg.Name, cfg.Model)
			if errors.Is(err, secrets.ErrNotConfigured) {
				plog.Warn("skipping provider without api key", zap.Error(err))
			} else {
				plog.Error("skipping provider", zap.Error(err))
			}
			continue
		}

		providers = append(providers, provider)
	}

	return providers, statuses
}

func buildProvider(ctx context.Context, cfg ProviderConfig, maxLogLength int, log *zap.Logger) (ai.Provider, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  cfg.Name + " api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   cfg.APIKeyEnv,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case kindGemini:
		return gemini.New(ctx, gemini.Options{
			Name:         cfg.Name,
			APIKey:       key,
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: maxLogLength,
		}, log)
	case kindOpenAICompatible:
		return openaicompat.New(openaicompat.Options{
			Name:         cfg.Name,
			BaseURL:      cfg.BaseURL,
			APIKey:       key,
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
			Headers:      cfg.Headers,
			MaxLogLength: maxLogLength,
		}, log)
	case kindAnthropic:
		return anthropic.New(anthropic.Options{
			Name:         cfg.Name,
			APIKey:       key,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
			MaxLogLength: maxLogLength,
		}, log)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func listProviders(cmd *cobra.Command) error {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		return err
	}

	_, statuses := buildProviders(cmd.Context(), config.Providers, config.Analysis.MaxLogLength, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tMODEL\tSTATUS")
	for _, s := range statuses {
		status := "ready"
		if s.Err != nil {
			status = "skipped: " + strings.TrimSpace(s.Err.Error())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Config.Name, s.Config.Kind, modelOrDefault(s.Config.Model), status)
	}
	return w.Flush()
}

func modelOrDefault(model string) string {
	if strings.TrimSpace(model) == "" {
		return "(default)"
	}
	return model
}
