// Package screening parses and scores a batch of CVs against one job, then
// filters and ranks the outcome.
package screening

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/parser"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	DefaultConcurrency = 4
	retryBackoff       = 2 * time.Second
)

var wait = utils.WaitFor

// CVParser is satisfied by *parser.Parser.
type CVParser interface {
	Parse(ctx context.Context, cvText string) (*profile.CandidateProfile, error)
}

// Document is one CV to screen. Source names it in reports, e.g. a file path.
type Document struct {
	Source string
	Text   string
}

type Options struct {
	// Concurrency bounds the parses in flight.
	Concurrency int
	// Attempts is the number of parse attempts for retryable failures. One means no retry.
	Attempts int
	Mode     scoring.Mode
}

type Screener struct {
	parser      CVParser
	scorer      *scoring.Scorer
	concurrency int
	attempts    int
	mode        scoring.Mode
	logger      *zap.Logger
}

func NewScreener(p CVParser, s *scoring.Scorer, opts Options, log *zap.Logger) *Screener {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Mode == "" {
		opts.Mode = scoring.ModeStandard
	}

	return &Screener{
		parser:      p,
		scorer:      s,
		concurrency: opts.Concurrency,
		attempts:    opts.Attempts,
		mode:        opts.Mode,
		logger:      logger.WithFields(log, zap.String(logger.FieldMode, string(opts.Mode))),
	}
}

// Screen returns one entry per document, in input order. A document that fails
// to parse or score is reported on its entry and does not stop the batch; only
// cancellation of ctx does.
func (s *Screener) Screen(ctx context.Context, docs []Document, job *profile.JobRequirements) (*Candidates, error) {
	if job == nil {
		return nil, &profile.ValidationError{Field: "job", Message: "is required"}
	}

	entries := make([]*Entry, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = s.screenOne(gctx, doc, job)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Candidates{Items: entries}, nil
}

func (s *Screener) screenOne(ctx context.Context, doc Document, job *profile.JobRequirements) *Entry {
	entry := &Entry{Source: doc.Source}
	log := s.logger.With(zap.String("source", doc.Source))

	candidate, err := s.parse(ctx, doc, log)
	if err != nil {
		entry.Error = err.Error()
		entry.Retryable = parser.IsRetryable(err)
		log.Warn("cv could not be parsed", zap.Error(err))
		return entry
	}
	entry.Profile = candidate

	result, err := s.scorer.Score(s.mode, candidate, job)
	if err != nil {
		entry.Error = err.Error()
		log.Warn("cv could not be scored", zap.Error(err))
		return entry
	}
	entry.Result = result

	log.Info("cv screened",
		zap.String("candidate", result.CandidateName),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("recommendation", string(result.Recommendation)),
	)
	return entry
}

// parse retries failures parser.IsRetryable reports, waiting between attempts.
func (s *Screener) parse(ctx context.Context, doc Document, log *zap.Logger) (*profile.CandidateProfile, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		candidate, err := s.parser.Parse(ctx, doc.Text)
		if err == nil {
			return candidate, nil
		}
		lastErr = err

		if attempt == s.attempts || !parser.IsRetryable(err) || ctx.Err() != nil {
			break
		}

		log.Warn("cv parse failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.attempts),
			zap.Error(err),
		)
		if werr := wait(ctx, retryBackoff*time.Duration(attempt)); werr != nil {
			return nil, errors.Join(lastErr, werr)
		}
	}
	return nil, lastErr
}
