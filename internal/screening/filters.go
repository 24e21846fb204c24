package screening

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/profile"
)

type failedParsesFilter struct {
	disabled bool
	reason   string
	logger   *zap.Logger
}

// NewFailedParses creates a filter that removes CVs which could not be parsed.
func NewFailedParses(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &failedParsesFilter{logger: logger}
}

func (f *failedParsesFilter) Name() string { return "failed_parses" }

func (f *failedParsesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *failedParsesFilter) IsEnabled() bool { return !f.disabled }

func (f *failedParsesFilter) Validate() error { return nil }

func (f *failedParsesFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Exclude((*Entry).Failed)
	if len(excluded) > 0 {
		f.logger.Info("excluding cvs that could not be screened",
			zap.Strings("excluded_sources", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *failedParsesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type minimumScoreFilter struct {
	minimum float64
	logger  *zap.Logger
}

// NewMinimumScore creates a filter that removes candidates scoring below minimum.
// Failed entries are left for the failed_parses step.
func NewMinimumScore(minimum float64, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &minimumScoreFilter{minimum: minimum, logger: logger}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(string) {}

func (f *minimumScoreFilter) IsEnabled() bool { return true }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum score %v is outside 0..100", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.minimum == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(e *Entry) bool {
		return !e.Failed() && e.Result.OverallScore < f.minimum
	})
	if len(excluded) > 0 {
		f.logger.Info("excluding candidates below the minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Strings("excluded_sources", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"minimum_score": fmt.Sprintf("%.1f", f.minimum)},
	}
}

type mustHaveSkillsFilter struct {
	skills []string
	logger *zap.Logger
}

// NewMustHaveSkills creates a filter that removes candidates lacking any of skills.
func NewMustHaveSkills(skills []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &mustHaveSkillsFilter{skills: profile.NormalizeSkills(skills), logger: logger}
}

func (f *mustHaveSkillsFilter) Name() string { return "must_have_skills" }

func (f *mustHaveSkillsFilter) Disable(string) {}

func (f *mustHaveSkillsFilter) IsEnabled() bool { return true }

func (f *mustHaveSkillsFilter) Validate() error { return nil }

func (f *mustHaveSkillsFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if len(f.skills) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(func(e *Entry) bool {
		if e.Profile == nil {
			return false
		}
		for _, s := range f.skills {
			if _, found := slices.BinarySearch(e.Profile.Skills, s); !found {
				return true
			}
		}
		return false
	})
	if len(excluded) > 0 {
		f.logger.Info("excluding candidates without must-have skills",
			zap.Strings("skills", f.skills),
			zap.Strings("excluded_sources", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *mustHaveSkillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.skills) > 0 {
		details["skills"] = strings.Join(f.skills, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
