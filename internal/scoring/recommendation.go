package scoring

import "math"

type Recommendation string

const (
	StrongMatch   Recommendation = "strong match"
	ModerateMatch Recommendation = "moderate match"
	WeakMatch     Recommendation = "weak match"
)

const (
	DefaultStrongThreshold   = 70.0
	DefaultModerateThreshold = 50.0
)

// Thresholds are the lowest overall scores labelled strong and moderate.
type Thresholds struct {
	Strong   float64 `mapstructure:"strong" json:"strong"`
	Moderate float64 `mapstructure:"moderate" json:"moderate"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Strong: DefaultStrongThreshold, Moderate: DefaultModerateThreshold}
}

func (t Thresholds) Validate() error {
	for _, v := range []float64{t.Strong, t.Moderate} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return configError("threshold %v is outside 0..100", v)
		}
	}
	if t.Moderate > t.Strong {
		return configError("moderate threshold %v is above strong threshold %v", t.Moderate, t.Strong)
	}
	return nil
}

func (t Thresholds) Recommend(overall float64) Recommendation {
	switch {
	case overall >= t.Strong:
		return StrongMatch
	case overall >= t.Moderate:
		return ModerateMatch
	default:
		return WeakMatch
	}
}

const (
	baseConfidence = 8
	minConfidence  = 1
	maxConfidence  = 10
)

// confidence rates on a 1..10 scale how much the overall score can be relied
// upon, given how much evidence backed each dimension.
func confidence(mode Mode, r *MatchResult, requiredSkills, educationRequirements, experienceEntries int) int {
	c := baseConfidence

	if requiredSkills > 0 {
		switch skills := r.SubScores[SkillsMatch]; {
		case skills < 50:
			c -= 2
		case skills < 70:
			c--
		case skills >= 90 && requiredSkills >= 3:
			c++
		}
	}

	if r.SubScores[ExperienceMatch] < 100 {
		c--
	}
	if educationRequirements > 0 && r.SubScores[EducationMatch] == 0 {
		c--
	}
	if experienceEntries == 0 {
		c--
	}

	if mode == ModeEnhanced {
		empty := 0
		for _, name := range enhancedCategories {
			if r.SubScores[name] == 0 {
				empty++
			}
		}
		if empty*2 > len(enhancedCategories) {
			c--
		}
	}

	return max(minConfidence, min(maxConfidence, c))
}
