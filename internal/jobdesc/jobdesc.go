// Package jobdesc derives JobRequirements from free job-description text.
//
// It is a deterministic heuristic: skills come from the keyword table's
// vocabulary, experience from "N+ years" phrases or seniority words, and
// education from lines naming a degree. Anything it misses can be supplied
// as a structured JobRequirements instead.
package jobdesc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/profile"
)

const (
	defaultCompany   = "Unspecified"
	bulletCharacters = "-*•·#>\t "
)

// Overrides replace values the heuristic would otherwise guess.
type Overrides struct {
	Title   string
	Company string
}

var (
	rangePattern    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:-|–|to)\s*(\d{1,2})\s*\+?\s*years?\b`)
	yearsPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:\.\d+)?\s*\+?\s*years?\b`)
	companyPattern  = regexp.MustCompile(`(?im)^\s*(?:company|employer|organi[sz]ation)\s*:\s*(.+?)\s*$`)
	titlePrefix     = regexp.MustCompile(`(?i)^(?:job\s+)?(?:title|position|role)\s*:\s*`)
	preferredMarker = regexp.MustCompile(`(?i)\b(?:preferred|nice[\s-]to[\s-]have|bonus|a plus|pluses|desirable)\b`)
	requiredMarker  = regexp.MustCompile(`(?i)\b(?:required|requirements|must[\s-]haves?|qualifications|responsibilities)\b`)
	degreeMarker    = regexp.MustCompile(`(?i)\bdegree\b`)
)

// seniority maps words to minimum years, checked in order.
var seniority = []struct {
	pattern *regexp.Regexp
	years   float64
}{
	{regexp.MustCompile(`(?i)\b(?:senior|sr\.?|principal|staff)\b`), 5},
	{regexp.MustCompile(`(?i)\b(?:mid-level|mid level|intermediate)\b`), 3},
	{regexp.MustCompile(`(?i)\b(?:junior|jr\.?|entry[\s-]level)\b`), 1},
}

// Parse turns text into validated JobRequirements. A nil table means the
// embedded keyword table.
func Parse(text string, table *keywords.Table, o Overrides) (*profile.JobRequirements, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &profile.ValidationError{Field: "job_description", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(text) > profile.MaxJobDescriptionLength {
		return nil, &profile.ValidationError{Field: "job_description", Message: "is longer than the accepted maximum"}
	}

	if table == nil {
		var err error
		if table, err = keywords.Default(); err != nil {
			return nil, err
		}
	}

	draft := profile.JobRequirements{
		Title:       firstNonEmpty(o.Title, title(text)),
		Company:     firstNonEmpty(o.Company, company(text), defaultCompany),
		Description: text,
	}
	draft.RequiredSkills, draft.PreferredSkills = skills(text, table)
	draft.MinExperienceYears, draft.MaxExperienceYears = experience(text)
	draft.EducationRequirements = education(text, table)

	return profile.NewJobRequirements(draft)
}

func lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimLeft(strings.TrimSpace(l), bulletCharacters)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func title(text string) string {
	ls := lines(text)
	if len(ls) == 0 {
		return ""
	}
	t := strings.TrimSpace(titlePrefix.ReplaceAllString(ls[0], ""))
	return truncate(t, profile.MaxTitleLength)
}

func company(text string) string {
	if m := companyPattern.FindStringSubmatch(text); m != nil {
		return truncate(m[1], profile.MaxTitleLength)
	}
	return ""
}

// skills splits vocabulary hits into required and preferred. A heading line
// switches the section for the lines below it; a line mentioning a preference
// marker is preferred on its own.
func skills(text string, table *keywords.Table) (required, preferred []string) {
	inPreferred := false
	for _, l := range lines(text) {
		found := table.Skills(l)

		if heading(l, found) {
			switch {
			case preferredMarker.MatchString(l):
				inPreferred = true
			case requiredMarker.MatchString(l):
				inPreferred = false
			}
		}

		if inPreferred || preferredMarker.MatchString(l) {
			preferred = append(preferred, found...)
		} else {
			required = append(required, found...)
		}
	}
	return required, preferred
}

// heading reports a section title: a line ending in a colon, or a short line
// that names no skill.
func heading(line string, skills []string) bool {
	if strings.HasSuffix(line, ":") {
		return true
	}
	return len(skills) == 0 && len(strings.Fields(line)) <= 5
}

// experience returns the minimum years and, for ranges like "3-5 years", the maximum.
func experience(text string) (float64, *float64) {
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		lo, hi = capYears(lo), capYears(hi)
		if hi >= lo {
			return lo, &hi
		}
		return lo, nil
	}

	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		years, _ := strconv.ParseFloat(m[1], 64)
		return capYears(years), nil
	}

	for _, s := range seniority {
		if s.pattern.MatchString(text) {
			return s.years, nil
		}
	}
	return 0, nil
}

func capYears(v float64) float64 {
	return min(v, profile.MaxExperienceYears)
}

// education keeps every line that names a degree level or the word degree.
func education(text string, table *keywords.Table) []string {
	var out []string
	for _, l := range lines(text) {
		if len(table.EducationLevels(l)) > 0 || degreeMarker.MatchString(l) {
			out = append(out, truncate(l, profile.MaxTitleLength))
		}
	}
	return out
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
