package parser

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxLength    = 50000
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var extractionPrompt string

type Options struct {
	// Timeout bounds a single model call.
	Timeout time.Duration
	// MaxLength is the longest accepted CV text, in characters.
	MaxLength    int
	MaxLogLength int
}

// Parser turns CV text into a validated CandidateProfile with one model call.
// It keeps no state between calls and is safe for concurrent use.
type Parser struct {
	generator ai.Generator
	timeout   time.Duration
	maxLength int
	maxLogLen int
	logger    *zap.Logger
}

func New(generator ai.Generator, opts Options, logger *zap.Logger) *Parser {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Parser{
		generator: generator,
		timeout:   opts.Timeout,
		maxLength: opts.MaxLength,
		maxLogLen: opts.MaxLogLength,
		logger:    logger,
	}
}

// Parse extracts a profile from cvText. Input problems are returned as
// *profile.ValidationError; everything that goes wrong after the request is
// sent is a *ParsingError. No profile is returned alongside an error.
func (p *Parser) Parse(ctx context.Context, cvText string) (*profile.CandidateProfile, error) {
	text := strings.TrimSpace(cvText)
	if text == "" {
		return nil, &profile.ValidationError{Field: "cv_text", Message: "must not be empty"}
	}
	if n := utf8.RuneCountInString(text); n > p.maxLength {
		return nil, &profile.ValidationError{Field: "cv_text", Message: "is longer than the accepted maximum"}
	}

	if p.generator == nil {
		return nil, &ParsingError{Kind: KindUnavailable, Message: "language model backend is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	message := "CV:\n" + text

	p.logger.Debug("cv extraction request",
		zap.String("model", p.generator.Model()),
		zap.Int("cv_length", utf8.RuneCountInString(text)),
		zap.Duration("timeout", p.timeout),
		zap.String("cv_preview", utils.TruncateForLog(text, p.maxLogLen)),
	)

	started := time.Now()
	raw, err := p.generator.GenerateContent(ctx, extractionPrompt, message)
	if err != nil {
		perr := backendError(ctx, err)
		p.logger.Warn("cv extraction request failed",
			zap.String("kind", string(perr.Kind)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, perr
	}

	p.logger.Debug("cv extraction response",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	draft, err := decodeExtraction(raw)
	if err != nil {
		p.logger.Warn("cv extraction response is malformed", zap.Error(err))
		return nil, &ParsingError{
			Kind:    KindInvalidResponse,
			Message: "model response does not match the extraction shape",
			Cause:   err,
		}
	}

	candidate, err := profile.NewCandidateProfile(draft)
	if err != nil {
		p.logger.Warn("extracted profile failed validation", zap.Error(err))
		return nil, &ParsingError{
			Kind:    KindInvalidResponse,
			Message: "extracted profile failed validation: " + validationSummary(err),
			Cause:   err,
		}
	}

	p.logger.Debug("cv parsed",
		zap.Int("skills", len(candidate.Skills)),
		zap.Int("education_entries", len(candidate.Education)),
		zap.Int("experience_entries", len(candidate.Experience)),
		zap.Float64("total_experience_years", candidate.TotalExperienceYears()),
	)

	return candidate, nil
}

func backendError(ctx context.Context, err error) *ParsingError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return &ParsingError{Kind: KindTimeout, Message: "language model did not answer in time", Cause: err}
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return &ParsingError{Kind: KindCanceled, Message: "request was canceled", Cause: err}
	default:
		return &ParsingError{Kind: KindUnavailable, Message: "language model backend request failed", Cause: err}
	}
}

// validationSummary names the offending field without echoing model output.
func validationSummary(err error) string {
	var verr *profile.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		return verr.Field
	}
	return "invalid value"
}
