package scoring

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spigell/cv-screener/internal/profile"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeEnhanced Mode = "enhanced"
)

// ParseMode accepts "standard" or "enhanced", case-insensitive. Empty means standard.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeEnhanced:
		return ModeEnhanced, nil
	}
	return "", &profile.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown scoring mode %q", s)}
}

// Dimension names. They double as sub_scores keys.
const (
	SkillsMatch               = "skills_match"
	ExperienceMatch           = "experience_match"
	EducationMatch            = "education_match"
	PlatformExpertise         = "platform_expertise"
	CampaignPerformance       = "campaign_performance"
	CoreAnalytics             = "core_analytics"
	CreativeSkills            = "creative_skills"
	SEOSEM                    = "seo_sem"
	MartechOperations         = "martech_operations"
	AdvancedAnalytics         = "advanced_analytics"
	IndustrySpecialization    = "industry_specialization"
	PlatformLeadership        = "platform_leadership"
	SalesMarketingIntegration = "sales_marketing_integration"
	RemoteWorkCapability      = "remote_work_capability"
	ExecutivePresence         = "executive_presence"
)

const (
	weightTolerance            = 1e-6
	standardShareInEnhanced    = 0.30
	specializedShareInEnhanced = 1 - standardShareInEnhanced
)

var standardDimensions = []string{SkillsMatch, ExperienceMatch, EducationMatch}

// enhancedCategories are keyword-detected and must exist in the keyword table.
var enhancedCategories = []string{
	PlatformExpertise,
	CampaignPerformance,
	CoreAnalytics,
	CreativeSkills,
	SEOSEM,
	MartechOperations,
	AdvancedAnalytics,
	IndustrySpecialization,
	PlatformLeadership,
	SalesMarketingIntegration,
	RemoteWorkCapability,
	ExecutivePresence,
}

// Weights maps a dimension name to its share of the overall score.
type Weights map[string]float64

// Dimensions lists the sub-scores computed in mode, standard ones first.
func Dimensions(mode Mode) []string {
	if mode == ModeEnhanced {
		return append(append([]string{}, standardDimensions...), enhancedCategories...)
	}
	return append([]string{}, standardDimensions...)
}

func DefaultStandardWeights() Weights {
	return Weights{
		SkillsMatch:     0.5,
		ExperienceMatch: 0.3,
		EducationMatch:  0.2,
	}
}

// DefaultEnhancedWeights keeps the standard dimensions at 30% of the score, in
// their standard proportions, and spreads the rest over the categories.
func DefaultEnhancedWeights() Weights {
	specialized := map[string]float64{
		PlatformExpertise:         0.20,
		CampaignPerformance:       0.15,
		CoreAnalytics:             0.13,
		CreativeSkills:            0.12,
		SEOSEM:                    0.08,
		MartechOperations:         0.08,
		AdvancedAnalytics:         0.07,
		IndustrySpecialization:    0.05,
		PlatformLeadership:        0.04,
		SalesMarketingIntegration: 0.03,
		RemoteWorkCapability:      0.03,
		ExecutivePresence:         0.02,
	}

	w := make(Weights, len(standardDimensions)+len(specialized))
	for name, v := range DefaultStandardWeights() {
		w[name] = v * standardShareInEnhanced
	}
	for name, v := range specialized {
		w[name] = v * specializedShareInEnhanced
	}
	return w
}

// Validate checks that w covers exactly the dimensions of mode with finite,
// non-negative values summing to 1.
func (w Weights) Validate(mode Mode) error {
	dims := Dimensions(mode)
	if len(w) == 0 {
		return configError("%s weights are missing", mode)
	}

	sum := 0.0
	for _, name := range dims {
		v, ok := w[name]
		if !ok {
			return configError("%s weights: dimension %s is missing", mode, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return configError("%s weights: dimension %s has invalid weight %v", mode, name, v)
		}
		sum += v
	}
	if len(w) != len(dims) {
		for name := range w {
			if !slices.Contains(dims, name) {
				return configError("%s weights: unknown dimension %s", mode, name)
			}
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return configError("%s weights sum to %.6f, want 1.0", mode, sum)
	}
	return nil
}
