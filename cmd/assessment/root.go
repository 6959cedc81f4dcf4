package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/studypilot/assessment-service/internal/cache"
	"github.com/studypilot/assessment-service/internal/config"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/llm"
	"github.com/studypilot/assessment-service/internal/metrics"
	"github.com/studypilot/assessment-service/internal/utils"
	"github.com/studypilot/assessment-service/pkg"
)

var rootCmd = &cobra.Command{
	Use:          "assessment",
	Short:        "Quiz assessment engine",
	Long:         "Grades quiz sessions: deterministic checks for MCQ and fill-in-the-blank, an LLM for short answers.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: openai, anthropic, gemini or mock (overrides LLM_PROVIDER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(cacheCmd)
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// loadApp reads configuration and applies the persistent flag overrides.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.LLM.Provider = provider
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		logger:   utils.NewLogger(cfg.Environment, cfg.LogLevel, os.Stderr),
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

// semanticGrader builds the LLM grader, wrapped in the redis grade cache
// when REDIS_URL is set and caching is enabled. The returned cleanup
// releases the redis client.
func (a *app) semanticGrader(ctx context.Context) (grading.SemanticGrader, func(), error) {
	provider, err := llm.NewProvider(ctx, a.cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("LLM provider ready", "provider", provider.Name(), "model", provider.Model())

	var grader grading.SemanticGrader = llm.NewShortAnswerGrader(provider, llm.GraderOptions{
		MaxTokens:   a.cfg.LLM.MaxTokens,
		Temperature: a.cfg.LLM.Temperature,
	}, a.logger)

	if a.cfg.RedisURL == "" || !a.cfg.Grading.CacheEnabled {
		return grader, func() {}, nil
	}

	client, err := pkg.NewRedisClient(ctx, a.cfg)
	if err != nil {
		a.logger.Warn("Grade cache disabled", "error", err)
		return grader, func() {}, nil
	}
	cached := cache.NewCachedGrader(grader, cache.NewRedisCache(client, a.logger), a.cfg.Grading.CacheTTL, a.logger, a.metrics)
	return cached, func() { client.Close() }, nil
}

func (a *app) orchestrator(grader grading.SemanticGrader) *grading.Orchestrator {
	return grading.NewOrchestrator(grader, grading.Options{
		MaxConcurrent:   a.cfg.Grading.MaxConcurrency,
		DelegateTimeout: a.cfg.Grading.DelegateTimeout,
	}, a.logger, a.metrics)
}
