package profile

import (
	"fmt"
	"slices"
	"strings"
)

// JobRequirements describes the position a candidate is scored against.
type JobRequirements struct {
	Title                 string   `json:"title" yaml:"title"`
	Company               string   `json:"company" yaml:"company"`
	Description           string   `json:"description" yaml:"description"`
	RequiredSkills        []string `json:"required_skills" yaml:"required_skills"`
	PreferredSkills       []string `json:"preferred_skills" yaml:"preferred_skills"`
	MinExperienceYears    float64  `json:"min_experience_years" yaml:"min_experience_years"`
	MaxExperienceYears    *float64 `json:"max_experience_years,omitempty" yaml:"max_experience_years,omitempty"`
	EducationRequirements []string `json:"education_requirements" yaml:"education_requirements"`
}

// NewJobRequirements validates a draft and returns a normalized copy.
// A skill listed as both required and preferred is kept as required only.
func NewJobRequirements(draft JobRequirements) (*JobRequirements, error) {
	var (
		j   JobRequirements
		err error
	)
	if j.Title, err = requiredText("title", draft.Title, MaxTitleLength); err != nil {
		return nil, err
	}
	if j.Company, err = requiredText("company", draft.Company, MaxTitleLength); err != nil {
		return nil, err
	}
	if j.Description, err = requiredText("description", draft.Description, MaxJobDescriptionLength); err != nil {
		return nil, err
	}
	if err = ValidateExperienceYears("min_experience_years", draft.MinExperienceYears); err != nil {
		return nil, err
	}
	j.MinExperienceYears = draft.MinExperienceYears

	if draft.MaxExperienceYears != nil {
		upper := *draft.MaxExperienceYears
		if err = ValidateExperienceYears("max_experience_years", upper); err != nil {
			return nil, err
		}
		if upper < j.MinExperienceYears {
			return nil, invalid("max_experience_years", "%v is below min_experience_years %v", upper, j.MinExperienceYears)
		}
		j.MaxExperienceYears = &upper
	}

	j.RequiredSkills = NormalizeSkills(draft.RequiredSkills)
	j.PreferredSkills = slices.DeleteFunc(NormalizeSkills(draft.PreferredSkills), func(s string) bool {
		_, found := slices.BinarySearch(j.RequiredSkills, s)
		return found
	})

	j.EducationRequirements = make([]string, 0, len(draft.EducationRequirements))
	for i, req := range draft.EducationRequirements {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		if _, err = requiredText(fmt.Sprintf("education_requirements[%d]", i), req, MaxTitleLength); err != nil {
			return nil, err
		}
		j.EducationRequirements = append(j.EducationRequirements, req)
	}

	return &j, nil
}
