package profile

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength           = 100
	MaxTitleLength          = 200
	MaxSummaryLength        = 1000
	MaxRoleDescription      = 2000
	MaxJobDescriptionLength = 10000

	MaxDurationMonths  = 600
	MinGraduationYear  = 1950
	MaxGraduationYear  = 2030
	MaxGPA             = 4.0
	MaxExperienceYears = 50
)

var (
	validate = validator.New()

	phonePattern    = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
	linkedInPattern = regexp.MustCompile(`^https?://.*linkedin\.com/.*`)
)

// ValidateName checks a candidate name and returns it trimmed.
func ValidateName(name string) (string, error) {
	return requiredText("name", name, MaxNameLength)
}

// ValidateEmail accepts an empty value; anything else must be a well-formed address.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", invalid("email", "%q is not a valid email address", email)
	}
	return email, nil
}

// ValidatePhone accepts an empty value or digits with optional +, spaces, dashes and parentheses.
func ValidatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	if !phonePattern.MatchString(phone) {
		return "", invalid("phone", "%q is not a valid phone number", phone)
	}
	return phone, nil
}

// ValidateLinkedIn accepts an empty value or an http(s) linkedin.com URL.
func ValidateLinkedIn(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", nil
	}
	if err := validate.Var(url, "url"); err != nil || !linkedInPattern.MatchString(url) {
		return "", invalid("linkedin", "%q is not a linkedin profile url", url)
	}
	return url, nil
}

func ValidateGraduationYear(year *int) error {
	if year == nil {
		return nil
	}
	if err := validate.Var(*year, "gte=1950,lte=2030"); err != nil {
		return invalid("graduation_year", "%d is outside %d-%d", *year, MinGraduationYear, MaxGraduationYear)
	}
	return nil
}

func ValidateGPA(gpa *float64) error {
	if gpa == nil {
		return nil
	}
	if math.IsNaN(*gpa) || validate.Var(*gpa, "gte=0,lte=4") != nil {
		return invalid("gpa", "%v is outside 0.0-%.1f", *gpa, MaxGPA)
	}
	return nil
}

func ValidateDurationMonths(months int) error {
	if err := validate.Var(months, "gte=0,lte=600"); err != nil {
		return invalid("duration_months", "%d is outside 0-%d", months, MaxDurationMonths)
	}
	return nil
}

// ValidateExperienceYears bounds a years requirement to 0-50.
func ValidateExperienceYears(field string, years float64) error {
	if math.IsNaN(years) || math.IsInf(years, 0) || validate.Var(years, "gte=0,lte=50") != nil {
		return invalid(field, "%v is outside 0-%d", years, MaxExperienceYears)
	}
	return nil
}

func requiredText(field, value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "must not be empty")
	}
	if err := validate.Var(value, "max="+strconv.Itoa(limit)); err != nil {
		return "", invalid(field, "must be at most %d characters", limit)
	}
	return value, nil
}

func optionalText(field, value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	return requiredText(field, value, limit)
}
