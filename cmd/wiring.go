package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/blob"
	"github.com/spigell/resume-scorer/internal/fetch"
	"github.com/spigell/resume-scorer/internal/pipeline"
)

// buildPipeline wires the configured collaborators into a pipeline.
func buildPipeline(ctx context.Context, config *Config, log *zap.Logger) (*pipeline.Pipeline, error) {
	providers, _ := buildProviders(ctx, config.Providers, config.Analysis.MaxLogLength, log)
	if len(providers) == 0 {
		log.Warn("no provider is usable, every analysis will fail until an api key is configured")
	}

	deps := pipeline.Deps{
		Providers: providers,
		Logger:    log,
	}

	if config.Fetch.Enabled {
		deps.Fetcher = fetch.New(fetch.Options{
			Timeout:   config.Fetch.Timeout,
			UserAgent: config.Fetch.UserAgent,
			MaxChars:  config.Fetch.MaxChars,
		}, log)
	}

	store, err := buildStore(ctx, config.Storage)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	log.Info("pipeline ready",
		zap.Strings("providers", providerNames(providers)),
		zap.Bool("fetch", config.Fetch.Enabled),
		zap.String("storage", config.Storage.Backend),
	)

	return pipeline.New(pipeline.Options{
		Timeout:       config.Analysis.Timeout,
		MinTextLength: config.Analysis.MinTextLength,
		PreviewLength: config.Analysis.PreviewLength,
		MaxLogLength:  config.Analysis.MaxLogLength,
	}, deps), nil
}

// buildStore returns nil when storage is disabled.
func buildStore(ctx context.Context, cfg StorageConfig) (pipeline.Store, error) {
	switch cfg.Backend {
	case "", storageNone:
		return nil, nil
	case storageLocal:
		store, err := blob.NewLocal(cfg.Local.Dir, cfg.Local.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return store, nil
	case storageS3:
		store, err := blob.NewS3(ctx, blob.S3Options{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			PathStyle:     cfg.S3.PathStyle,
			AccessKey:     os.Getenv(cfg.S3.AccessKeyEnv),
			SecretKey:     os.Getenv(cfg.S3.SecretKeyEnv),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return store, nil
	default:
		return nil, errors.New("unknown storage backend " + cfg.Backend)
	}
}

func providerNames(providers []ai.Provider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}
