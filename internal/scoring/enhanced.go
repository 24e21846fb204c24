package scoring

import (
	"strings"

	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/profile"
)

// corpus is the lower-cased text enhanced categories are detected in: skills,
// summary and every role's title, description and skills.
func corpus(candidate *profile.CandidateProfile) string {
	parts := make([]string, 0, 2+len(candidate.Experience)*3)
	parts = append(parts, strings.Join(candidate.Skills, ", "), candidate.Summary)
	for _, e := range candidate.Experience {
		parts = append(parts, e.Title, e.Description, strings.Join(e.Skills, ", "))
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

func scoreCategory(c *keywords.Category, text string) Evidence {
	d := c.Detect(text)

	summary := "no indicators found"
	if d.Hits > 0 {
		summary = strings.Join(d.Matched, ", ")
	}

	return Evidence{
		Score:   c.Score(d),
		Summary: summary,
		Matched: d.Matched,
		Values: map[string]float64{
			"indicators":           float64(d.Hits),
			"points_per_indicator": c.Points(),
		},
	}
}
