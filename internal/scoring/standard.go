package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/profile"
)

const (
	requiredSkillsShare  = 80.0
	preferredSkillsShare = 20.0
)

// degreeRank orders the education levels of the keyword table. A candidate
// holding a higher level satisfies a requirement for a lower one.
var degreeRank = map[string]int{
	"associate": 1,
	"bachelor":  2,
	"master":    3,
	"mba":       3,
	"doctorate": 4,
}

type skillsOutcome struct {
	evidence Evidence
	matched  []string
	missing  []string
}

// scoreSkills rates coverage of the job's skills by candidate.Skills.
// Required skills carry 80 points and preferred ones 20. When one of the two
// lists is empty the other carries the whole scale; without required skills
// the score is neutral.
func scoreSkills(candidate []string, job *profile.JobRequirements) skillsOutcome {
	have := make(map[string]struct{}, len(candidate))
	for _, s := range candidate {
		have[s] = struct{}{}
	}

	reqHit, reqMiss := split(job.RequiredSkills, have)
	prefHit, prefMiss := split(job.PreferredSkills, have)

	var score float64
	switch {
	case len(job.RequiredSkills) == 0:
		score = 100
	case len(job.PreferredSkills) == 0:
		score = ratio(len(reqHit), len(job.RequiredSkills)) * 100
	default:
		score = ratio(len(reqHit), len(job.RequiredSkills))*requiredSkillsShare +
			ratio(len(prefHit), len(job.PreferredSkills))*preferredSkillsShare
	}

	matched := sorted(append(append([]string{}, reqHit...), prefHit...))
	missing := sorted(append(append([]string{}, reqMiss...), prefMiss...))

	summary := "no required skills listed"
	if len(job.RequiredSkills) > 0 {
		summary = fmt.Sprintf("%d of %d required skills", len(reqHit), len(job.RequiredSkills))
	}
	if len(job.PreferredSkills) > 0 {
		summary += fmt.Sprintf(", %d of %d preferred skills", len(prefHit), len(job.PreferredSkills))
	}

	return skillsOutcome{
		evidence: Evidence{
			Score:   score,
			Summary: summary,
			Matched: matched,
			Missing: missing,
			Values: map[string]float64{
				"required_matched":  float64(len(reqHit)),
				"required_total":    float64(len(job.RequiredSkills)),
				"preferred_matched": float64(len(prefHit)),
				"preferred_total":   float64(len(job.PreferredSkills)),
				"candidate_skills":  float64(len(candidate)),
			},
		},
		matched: matched,
		missing: missing,
	}
}

// scoreExperience ramps linearly from 0 at no experience to 100 at the
// required minimum.
func scoreExperience(candidate *profile.CandidateProfile, job *profile.JobRequirements) Evidence {
	have := candidate.TotalExperienceYears()
	need := job.MinExperienceYears

	score := 100.0
	if need > 0 && have < need {
		score = have / need * 100
	}

	summary := fmt.Sprintf("candidate: %.1f years, required: %.1f years", have, need)
	values := map[string]float64{
		"candidate_years":       have,
		"required_years":        need,
		"average_tenure_months": candidate.AverageTenureMonths(),
		"roles":                 float64(len(candidate.Experience)),
	}
	if upper := job.MaxExperienceYears; upper != nil {
		values["maximum_years"] = *upper
		if have > *upper {
			summary += fmt.Sprintf(", above the stated maximum of %.1f years", *upper)
		}
	}

	return Evidence{Score: score, Summary: summary, Values: values}
}

// scoreEducation counts the requirements met by at least one degree. A
// requirement is met when either text contains the other, or when both name
// a degree level and the candidate's is the same or higher. This is keyword
// matching only.
func scoreEducation(education []profile.Education, requirements []string, table *keywords.Table) Evidence {
	degrees := make([]string, 0, len(education))
	for _, e := range education {
		degrees = append(degrees, e.Degree)
	}

	if len(requirements) == 0 {
		return Evidence{Score: 100, Summary: "no education requirements", Matched: degrees}
	}

	var met, unmet []string
	for _, req := range requirements {
		if slices.ContainsFunc(degrees, func(d string) bool { return degreeMeets(d, req, table) }) {
			met = append(met, req)
		} else {
			unmet = append(unmet, req)
		}
	}

	return Evidence{
		Score:   ratio(len(met), len(requirements)) * 100,
		Summary: fmt.Sprintf("%d of %d education requirements met", len(met), len(requirements)),
		Matched: met,
		Missing: unmet,
		Values: map[string]float64{
			"candidate_degrees": float64(len(degrees)),
		},
	}
}

func degreeMeets(degree, requirement string, table *keywords.Table) bool {
	d := strings.ToLower(strings.TrimSpace(degree))
	r := strings.ToLower(strings.TrimSpace(requirement))
	if d == "" || r == "" {
		return false
	}
	if keywords.ContainsPhrase(r, d) || keywords.ContainsPhrase(d, r) {
		return true
	}

	held := table.EducationLevels(d)
	wanted := table.EducationLevels(r)
	for _, w := range wanted {
		for _, h := range held {
			if h == w || degreeRank[h] > degreeRank[w] {
				return true
			}
		}
	}
	return false
}

func split(skills []string, have map[string]struct{}) (hit, miss []string) {
	for _, s := range skills {
		if _, ok := have[s]; ok {
			hit = append(hit, s)
		} else {
			miss = append(miss, s)
		}
	}
	return hit, miss
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func sorted(s []string) []string {
	slices.Sort(s)
	return slices.Compact(s)
}
