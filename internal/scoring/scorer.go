// Package scoring rates a candidate profile against job requirements.
//
// Standard mode combines skills, experience and education sub-scores. Enhanced
// mode adds keyword-detected categories from a versioned keyword table. All
// weights and thresholds are configuration, validated when the Scorer is built.
package scoring

import (
	"maps"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/profile"
)

type Config struct {
	// StandardWeights and EnhancedWeights default to the built-in tables when nil.
	StandardWeights Weights
	EnhancedWeights Weights
	// Thresholds defaults to 70/50 when zero.
	Thresholds Thresholds
	// Keywords defaults to the embedded table when nil.
	Keywords *keywords.Table
}

// Scorer is immutable after New and safe for concurrent use.
type Scorer struct {
	weights    map[Mode]Weights
	thresholds Thresholds
	table      *keywords.Table
	logger     *zap.Logger
}

// New validates cfg and returns a Scorer. Every configuration problem is
// reported as *ScoringError.
func New(cfg Config, log *zap.Logger) (*Scorer, error) {
	standard := cfg.StandardWeights
	if standard == nil {
		standard = DefaultStandardWeights()
	}
	enhanced := cfg.EnhancedWeights
	if enhanced == nil {
		enhanced = DefaultEnhancedWeights()
	}
	if err := standard.Validate(ModeStandard); err != nil {
		return nil, err
	}
	if err := enhanced.Validate(ModeEnhanced); err != nil {
		return nil, err
	}

	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	table := cfg.Keywords
	if table == nil {
		var err error
		if table, err = keywords.Default(); err != nil {
			return nil, &ScoringError{Message: "embedded keyword table", Cause: err}
		}
	}
	for _, name := range enhancedCategories {
		if _, ok := table.Category(name); !ok {
			return nil, configError("keyword table %s has no category %s", table.Version(), name)
		}
	}

	return &Scorer{
		weights: map[Mode]Weights{
			ModeStandard: maps.Clone(standard),
			ModeEnhanced: maps.Clone(enhanced),
		},
		thresholds: thresholds,
		table:      table,
		logger:     logger.WithFields(log, zap.String("keywords_version", table.Version())),
	}, nil
}

func (s *Scorer) KeywordsVersion() string {
	return s.table.Version()
}

// Keywords returns the table enhanced categories are detected with.
func (s *Scorer) Keywords() *keywords.Table {
	return s.table
}

func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

// Weights returns a copy of the weights used in mode.
func (s *Scorer) Weights(mode Mode) Weights {
	return maps.Clone(s.weights[mode])
}

// Score computes the match between candidate and job. Both must come from
// their validating constructors. Scoring itself never fails on valid input:
// missing optional data yields neutral sub-scores.
func (s *Scorer) Score(mode Mode, candidate *profile.CandidateProfile, job *profile.JobRequirements) (*MatchResult, error) {
	if candidate == nil {
		return nil, &profile.ValidationError{Field: "candidate", Message: "is required"}
	}
	if job == nil {
		return nil, &profile.ValidationError{Field: "job", Message: "is required"}
	}
	weights, ok := s.weights[mode]
	if !ok {
		return nil, &profile.ValidationError{Field: "mode", Message: "unknown scoring mode " + string(mode)}
	}

	skills := scoreSkills(candidate.Skills, job)
	evidence := map[string]Evidence{
		SkillsMatch:     skills.evidence,
		ExperienceMatch: scoreExperience(candidate, job),
		EducationMatch:  scoreEducation(candidate.Education, job.EducationRequirements, s.table),
	}

	if mode == ModeEnhanced {
		text := corpus(candidate)
		for _, name := range enhancedCategories {
			// presence is checked in New
			category, _ := s.table.Category(name)
			evidence[name] = scoreCategory(category, text)
		}
	}

	result := &MatchResult{
		CandidateName:   candidate.Name,
		JobTitle:        job.Title,
		Mode:            mode,
		SubScores:       make(map[string]float64, len(weights)),
		MatchedSkills:   skills.matched,
		MissingSkills:   skills.missing,
		Evidence:        make(map[string]Evidence, len(weights)),
		KeywordsVersion: s.table.Version(),
	}

	overall := 0.0
	for _, name := range Dimensions(mode) {
		ev := evidence[name]
		raw := clamp(ev.Score)
		overall += raw * weights[name]

		ev.Score = round1(raw)
		ev.Weight = weights[name]
		result.Evidence[name] = ev
		result.SubScores[name] = ev.Score
	}

	result.OverallScore = round1(clamp(overall))
	result.Recommendation = s.thresholds.Recommend(result.OverallScore)
	result.Confidence = confidence(mode, result, len(job.RequiredSkills), len(job.EducationRequirements), len(candidate.Experience))

	s.logger.Debug("match scored",
		zap.String("candidate", candidate.Name),
		zap.String("job", job.Title),
		zap.String(logger.FieldMode, string(mode)),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Int("confidence", result.Confidence),
	)

	return result, nil
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
