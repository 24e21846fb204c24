package profile

import (
	"encoding/json"
	"fmt"
	"math"
)

// ContactInfo holds optional contact details. Empty fields were not found in the CV.
type ContactInfo struct {
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

func NewContactInfo(email, phone, linkedIn, location string) (*ContactInfo, error) {
	var (
		c   ContactInfo
		err error
	)
	if c.Email, err = ValidateEmail(email); err != nil {
		return nil, nested("contact", err)
	}
	if c.Phone, err = ValidatePhone(phone); err != nil {
		return nil, nested("contact", err)
	}
	if c.LinkedIn, err = ValidateLinkedIn(linkedIn); err != nil {
		return nil, nested("contact", err)
	}
	if c.Location, err = optionalText("location", location, MaxTitleLength); err != nil {
		return nil, nested("contact", err)
	}
	return &c, nil
}

func (c *ContactInfo) empty() bool {
	return c == nil || (c.Email == "" && c.Phone == "" && c.LinkedIn == "" && c.Location == "")
}

type Education struct {
	Degree         string   `json:"degree" yaml:"degree"`
	Institution    string   `json:"institution" yaml:"institution"`
	GraduationYear *int     `json:"graduation_year,omitempty" yaml:"graduation_year,omitempty"`
	GPA            *float64 `json:"gpa,omitempty" yaml:"gpa,omitempty"`
}

func NewEducation(degree, institution string, graduationYear *int, gpa *float64) (Education, error) {
	var (
		e   Education
		err error
	)
	if e.Degree, err = requiredText("degree", degree, MaxTitleLength); err != nil {
		return Education{}, err
	}
	if e.Institution, err = requiredText("institution", institution, MaxTitleLength); err != nil {
		return Education{}, err
	}
	if err = ValidateGraduationYear(graduationYear); err != nil {
		return Education{}, err
	}
	if err = ValidateGPA(gpa); err != nil {
		return Education{}, err
	}
	if graduationYear != nil {
		year := *graduationYear
		e.GraduationYear = &year
	}
	if gpa != nil {
		value := *gpa
		e.GPA = &value
	}
	return e, nil
}

// Experience is a single role. Skills holds the normalized skills used in it.
type Experience struct {
	Title          string   `json:"title" yaml:"title"`
	Company        string   `json:"company" yaml:"company"`
	DurationMonths int      `json:"duration_months" yaml:"duration_months"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Skills         []string `json:"skills_used" yaml:"skills_used"`
}

func NewExperience(title, company string, durationMonths int, description string, skills []string) (Experience, error) {
	var (
		e   Experience
		err error
	)
	if e.Title, err = requiredText("title", title, MaxTitleLength); err != nil {
		return Experience{}, err
	}
	if e.Company, err = requiredText("company", company, MaxTitleLength); err != nil {
		return Experience{}, err
	}
	if err = ValidateDurationMonths(durationMonths); err != nil {
		return Experience{}, err
	}
	if e.Description, err = optionalText("description", description, MaxRoleDescription); err != nil {
		return Experience{}, err
	}
	e.DurationMonths = durationMonths
	e.Skills = NormalizeSkills(skills)
	return e, nil
}

// CandidateProfile is the structured form of a CV. Values returned by
// NewCandidateProfile are validated and must be treated as read-only.
// The experience totals are methods so they can never drift from Experience.
type CandidateProfile struct {
	Name       string       `json:"name" yaml:"name"`
	Contact    *ContactInfo `json:"contact,omitempty" yaml:"contact,omitempty"`
	Summary    string       `json:"professional_summary,omitempty" yaml:"professional_summary,omitempty"`
	Skills     []string     `json:"skills" yaml:"skills"`
	Education  []Education  `json:"education" yaml:"education"`
	Experience []Experience `json:"experience" yaml:"experience"`
}

// NewCandidateProfile validates a draft and returns a normalized copy of it.
// Every nested entry goes through its own constructor again, so drafts decoded
// from files are held to the same rules as parser output.
func NewCandidateProfile(draft CandidateProfile) (*CandidateProfile, error) {
	name, err := ValidateName(draft.Name)
	if err != nil {
		return nil, err
	}

	summary, err := optionalText("professional_summary", draft.Summary, MaxSummaryLength)
	if err != nil {
		return nil, err
	}

	p := &CandidateProfile{
		Name:       name,
		Summary:    summary,
		Skills:     NormalizeSkills(draft.Skills),
		Education:  make([]Education, 0, len(draft.Education)),
		Experience: make([]Experience, 0, len(draft.Experience)),
	}

	if c := draft.Contact; !c.empty() {
		if p.Contact, err = NewContactInfo(c.Email, c.Phone, c.LinkedIn, c.Location); err != nil {
			return nil, err
		}
	}

	for i, e := range draft.Education {
		entry, err := NewEducation(e.Degree, e.Institution, e.GraduationYear, e.GPA)
		if err != nil {
			return nil, nested(fmt.Sprintf("education[%d]", i), err)
		}
		p.Education = append(p.Education, entry)
	}

	for i, e := range draft.Experience {
		entry, err := NewExperience(e.Title, e.Company, e.DurationMonths, e.Description, e.Skills)
		if err != nil {
			return nil, nested(fmt.Sprintf("experience[%d]", i), err)
		}
		p.Experience = append(p.Experience, entry)
	}

	return p, nil
}

// TotalExperienceYears is the sum of all role durations in years, rounded to one decimal.
func (p CandidateProfile) TotalExperienceYears() float64 {
	return round1(float64(p.totalMonths()) / 12)
}

// AverageTenureMonths is the mean role duration, rounded to one decimal. Zero without roles.
func (p CandidateProfile) AverageTenureMonths() float64 {
	if len(p.Experience) == 0 {
		return 0
	}
	return round1(float64(p.totalMonths()) / float64(len(p.Experience)))
}

func (p CandidateProfile) totalMonths() int {
	total := 0
	for _, e := range p.Experience {
		total += e.DurationMonths
	}
	return total
}

// MarshalJSON adds the derived experience totals to the encoded profile.
func (p CandidateProfile) MarshalJSON() ([]byte, error) {
	type plain CandidateProfile
	return json.Marshal(struct {
		plain
		TotalExperienceYears float64 `json:"total_experience_years"`
		AverageTenureMonths  float64 `json:"average_tenure_months"`
	}{
		plain:                plain(p),
		TotalExperienceYears: p.TotalExperienceYears(),
		AverageTenureMonths:  p.AverageTenureMonths(),
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
