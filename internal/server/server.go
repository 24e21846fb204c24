// Package server exposes CV analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/server/ratelimit"
)

const (
	DefaultListen   = ":8080"
	shutdownTimeout = 30 * time.Second
	maxBodyBytes    = 1 << 20
)

// CVParser is satisfied by *parser.Parser.
type CVParser interface {
	Parse(ctx context.Context, cvText string) (*profile.CandidateProfile, error)
}

type Config struct {
	Listen                  string           `mapstructure:"listen"`
	MaxJobDescriptionLength int              `mapstructure:"max-job-description-length"`
	RateLimit               ratelimit.Config `mapstructure:"rate-limit"`
}

// Deps are the collaborators a Server serves requests with.
type Deps struct {
	Parser CVParser
	Scorer *scoring.Scorer
	// Model is reported by /health.
	Model string
	// Limiter defaults to an in-memory store built from Config.RateLimit.
	Limiter ratelimit.Store
}

type Server struct {
	httpServer *http.Server
	parser     CVParser
	scorer     *scoring.Scorer
	model      string
	maxJobLen  int
	limiter    ratelimit.Store
	logger     *zap.Logger
}

func New(cfg Config, deps Deps, log *zap.Logger) (*Server, error) {
	if deps.Parser == nil {
		return nil, errors.New("server needs a cv parser")
	}
	if deps.Scorer == nil {
		return nil, errors.New("server needs a scorer")
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxJobDescriptionLength <= 0 || cfg.MaxJobDescriptionLength > profile.MaxJobDescriptionLength {
		cfg.MaxJobDescriptionLength = profile.MaxJobDescriptionLength
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemoryStore(cfg.RateLimit)
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		parser:    deps.Parser,
		scorer:    deps.Scorer,
		model:     deps.Model,
		maxJobLen: cfg.MaxJobDescriptionLength,
		limiter:   deps.Limiter,
		logger:    log,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Parsing waits on the model, so writes get the longest budget.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with request IDs and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze(scoring.ModeStandard))
	mux.HandleFunc("POST /api/analyze-enhanced", s.handleAnalyze(scoring.ModeEnhanced))
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRequestID(s.withRateLimit(mux))
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", zap.String("listen", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
