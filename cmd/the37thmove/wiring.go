package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Domnoval/THE-37TH-MOVE/internal/chat"
	"github.com/Domnoval/THE-37TH-MOVE/internal/config"
	"github.com/Domnoval/THE-37TH-MOVE/internal/generation"
	"github.com/Domnoval/THE-37TH-MOVE/internal/memory"
	"github.com/Domnoval/THE-37TH-MOVE/internal/observability"
	"github.com/Domnoval/THE-37TH-MOVE/internal/persona"
	"github.com/Domnoval/THE-37TH-MOVE/internal/recorder"
	"github.com/Domnoval/THE-37TH-MOVE/internal/session"
	"github.com/Domnoval/THE-37TH-MOVE/internal/storage"
)

// runtime holds everything a command needs to run chat turns.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	chat    *chat.Service
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = r.logger.Sync()
	return errors.Join(errs...)
}

func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(cfg.MetricsNamespace),
	}

	sessions, err := session.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("session store init: %w", err)
	}
	rt.closers = append(rt.closers, sessions.Close)

	memories, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("memory store init: %w", err)
	}
	rt.closers = append(rt.closers, memories.Close)

	catalog, err := buildCatalog(ctx, cfg, rt)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	provider := cfg.ResolvedGenerationProvider()
	generator, err := generation.NewClient(ctx, generation.Config{
		Provider: provider,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		BaseURL:  cfg.GeminiBaseURL,
		Sampling: generation.Sampling{
			Temperature:     float32(cfg.Temperature),
			TopP:            float32(cfg.TopP),
			TopK:            float32(cfg.TopK),
			MaxOutputTokens: int32(cfg.MaxOutputTokens),
		},
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("generation client init: %w", err)
	}

	rec := recorder.New(sessions, memories, logger, recorder.Options{RedactPII: cfg.MemoryRedactPII})
	rt.chat = chat.NewService(
		session.NewResolver(sessions),
		catalog,
		memories,
		generator,
		rec,
		rt.metrics,
		logger,
		chat.Options{
			WindowLimit:       cfg.MemoryWindowLimit,
			MaxMessageLength:  cfg.MessageMaxLength,
			GenerationTimeout: cfg.GenerationTimeout,
			Provider:          provider,
		},
	)

	logger.Info("runtime ready",
		zap.String("generation_provider", provider),
		zap.String("storage", backendName(cfg.DatabaseURL)),
		zap.Bool("redact_pii", cfg.MemoryRedactPII),
	)
	return rt, nil
}

// buildCatalog prefers an explicit YAML file, then the personalities table,
// then the built-in profiles.
func buildCatalog(ctx context.Context, cfg config.Config, rt *runtime) (persona.Catalog, error) {
	if cfg.PersonalityCatalogPath != "" {
		catalog, err := persona.LoadFile(cfg.PersonalityCatalogPath)
		if err != nil {
			return nil, fmt.Errorf("personality catalog: %w", err)
		}
		rt.logger.Info("personality catalog loaded",
			zap.String("path", cfg.PersonalityCatalogPath),
			zap.Int("profiles", catalog.Len()),
		)
		return catalog, nil
	}
	backend, _, err := storage.Classify(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if backend == storage.BackendPostgres {
		catalog, err := persona.NewPostgresCatalog(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("personality catalog: %w", err)
		}
		rt.closers = append(rt.closers, catalog.Close)
		return catalog, nil
	}
	return persona.DefaultCatalog(), nil
}

func backendName(databaseURL string) string {
	backend, _, err := storage.Classify(databaseURL)
	if err != nil {
		return "invalid"
	}
	return string(backend)
}
