package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/parser"
	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/secrets"
)

// setup builds the logger and reads the config every command starts from.
func setup(command string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the "+app, zap.String("command", command), zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// redacted returns a copy of config safe to print.
func redacted(config *Config) Config {
	c := *config
	if c.AI != nil && c.AI.Gemini != nil && c.AI.Gemini.APIKey != "" {
		ai := *c.AI
		g := *ai.Gemini
		g.APIKey = "<redacted>"
		ai.Gemini = &g
		c.AI = &ai
	}
	return c
}

func newScorer(cfg *ScoringConfig, logger *zap.Logger) (*scoring.Scorer, error) {
	if cfg == nil {
		cfg = &ScoringConfig{}
	}

	table, err := keywords.Load(cfg.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("loading keyword table: %w", err)
	}

	return scoring.New(scoring.Config{
		StandardWeights: cfg.Weights.Standard,
		EnhancedWeights: cfg.Weights.Enhanced,
		Thresholds:      cfg.Thresholds,
		Keywords:        table,
	}, logger)
}

func newParser(ctx context.Context, config *Config, base *zap.Logger) (*parser.Parser, string, error) {
	if config.AI == nil || config.AI.Gemini == nil {
		return nil, "", errors.New("ai.gemini section is required")
	}
	cfg := config.AI

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, "", fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		base.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)),
	)
	if err != nil {
		return nil, "", err
	}

	opts := parser.Options{MaxLogLength: cfg.Gemini.MaxLogLength}
	if config.Parser != nil {
		opts.Timeout = config.Parser.Timeout
		opts.MaxLength = config.Parser.MaxCVLength
	}

	p := parser.New(generator, opts, logger.WithCommonFields(base, gemini.Provider, generator.Model()))
	return p, generator.Model(), nil
}
