package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-screener/internal/profile"
)

// extraction mirrors the JSON shape requested in prompt.md. Loose types absorb
// the usual model deviations (numbers as strings, skills as one string).
type extraction struct {
	Name       string                 `json:"name"`
	Contact    *contactExtraction     `json:"contact"`
	Summary    string                 `json:"professional_summary"`
	Skills     any                    `json:"skills"`
	Education  []educationExtraction  `json:"education"`
	Experience []experienceExtraction `json:"experience"`
}

type contactExtraction struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	Location string `json:"location"`
}

type educationExtraction struct {
	Degree         string   `json:"degree"`
	Institution    string   `json:"institution"`
	GraduationYear *float64 `json:"graduation_year"`
	GPA            *float64 `json:"gpa"`
}

type experienceExtraction struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	DurationMonths *float64 `json:"duration_months"`
	Description    string   `json:"description"`
	SkillsUsed     any      `json:"skills_used"`
}

func decodeExtraction(raw string) (profile.CandidateProfile, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return profile.CandidateProfile{}, errors.New("response contains no json object")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return profile.CandidateProfile{}, fmt.Errorf("unmarshal response: %w", err)
	}

	var out extraction
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &out,
	})
	if err != nil {
		return profile.CandidateProfile{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return profile.CandidateProfile{}, fmt.Errorf("decode response: %w", err)
	}

	return out.draft()
}

func (e extraction) draft() (profile.CandidateProfile, error) {
	draft := profile.CandidateProfile{
		Name:    blank(e.Name),
		Summary: blank(e.Summary),
		Skills:  skillList(e.Skills),
	}

	if c := e.Contact; c != nil {
		draft.Contact = &profile.ContactInfo{
			Email:    blank(c.Email),
			Phone:    blank(c.Phone),
			LinkedIn: blank(c.LinkedIn),
			Location: blank(c.Location),
		}
	}

	for i, edu := range e.Education {
		year, err := whole(edu.GraduationYear)
		if err != nil {
			return profile.CandidateProfile{}, fmt.Errorf("education[%d].graduation_year: %w", i, err)
		}
		draft.Education = append(draft.Education, profile.Education{
			Degree:         blank(edu.Degree),
			Institution:    blank(edu.Institution),
			GraduationYear: year,
			GPA:            edu.GPA,
		})
	}

	for i, exp := range e.Experience {
		if exp.DurationMonths == nil {
			return profile.CandidateProfile{}, fmt.Errorf("experience[%d].duration_months is missing", i)
		}
		months, err := whole(exp.DurationMonths)
		if err != nil {
			return profile.CandidateProfile{}, fmt.Errorf("experience[%d].duration_months: %w", i, err)
		}
		draft.Experience = append(draft.Experience, profile.Experience{
			Title:          blank(exp.Title),
			Company:        blank(exp.Company),
			DurationMonths: *months,
			Description:    blank(exp.Description),
			Skills:         skillList(exp.SkillsUsed),
		})
	}

	return draft, nil
}

// whole converts a decoded number to int. Fractions are rejected rather than
// truncated, so derived totals only use values the model actually sent.
func whole(v *float64) (*int, error) {
	if v == nil {
		return nil, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v != math.Trunc(*v) {
		return nil, fmt.Errorf("%v is not a whole number", *v)
	}
	if math.Abs(*v) > math.MaxInt32 {
		return nil, fmt.Errorf("%v is out of range", *v)
	}
	n := int(*v)
	return &n, nil
}

// skillList accepts a comma separated string, a list, or a map of category to
// list, and returns the normalized set.
func skillList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return profile.SplitSkills(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return profile.NormalizeSkills(out)
	case []string:
		return profile.NormalizeSkills(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, skillList(val[k])...)
		}
		return profile.NormalizeSkills(out)
	default:
		return nil
	}
}

// blank maps the placeholders models use for absent values to an empty string.
func blank(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "na", "unknown", "not provided", "not specified", "-":
		return ""
	}
	return s
}

// extractJSON returns the text between the first '{' and the last '}'.
// Code fences and prose around the object are dropped.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(raw[start : end+1])
}
