package jobdesc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-screener/internal/profile"
)

const dataEngineer = `Senior Data Engineer
Company: Beta Analytics

We are looking for an engineer with 5+ years of experience.

Requirements:
- Python and SQL
- AWS
- Bachelor's degree in Computer Science or related field

Nice to have:
- Kafka
- Docker and SQL
`

func TestParse(t *testing.T) {
	t.Parallel()

	job, err := Parse(dataEngineer, nil, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Senior Data Engineer", job.Title)
	assert.Equal(t, "Beta Analytics", job.Company)
	assert.Equal(t, strings.TrimSpace(dataEngineer), job.Description)
	assert.Equal(t, []string{"aws", "python", "sql"}, job.RequiredSkills)
	assert.Equal(t, []string{"docker", "kafka"}, job.PreferredSkills, "sql stays required only")
	assert.Equal(t, 5.0, job.MinExperienceYears)
	assert.Nil(t, job.MaxExperienceYears)
	assert.Equal(t, []string{"Bachelor's degree in Computer Science or related field"}, job.EducationRequirements)
}

func TestParseInlinePreference(t *testing.T) {
	t.Parallel()

	job, err := Parse("Junior Marketing Analyst\nWork with Google Ads and Excel.\nTableau experience is a plus.", nil, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "Junior Marketing Analyst", job.Title)
	assert.Equal(t, defaultCompany, job.Company)
	assert.Equal(t, []string{"excel", "google ads"}, job.RequiredSkills)
	assert.Equal(t, []string{"tableau"}, job.PreferredSkills)
	assert.Equal(t, 1.0, job.MinExperienceYears)
	assert.Empty(t, job.EducationRequirements)
}

func TestParseExperience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantMin float64
		wantMax *float64
	}{
		{name: "range", text: "Analyst\nYou bring 3-5 years in analytics.", wantMin: 3, wantMax: ptr(5)},
		{name: "range with to", text: "Analyst\n2 to 4 years of SQL.", wantMin: 2, wantMax: ptr(4)},
		{name: "plus", text: "Analyst\n7+ years of experience", wantMin: 7},
		{name: "capped", text: "Analyst\n99 years of experience", wantMin: 50},
		{name: "senior", text: "Senior Analyst\nOwn reporting.", wantMin: 5},
		{name: "mid-level", text: "Mid-level Analyst\nOwn reporting.", wantMin: 3},
		{name: "no hint", text: "Analyst\nOwn reporting.", wantMin: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job, err := Parse(tt.text, nil, Overrides{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, job.MinExperienceYears)
			assert.Equal(t, tt.wantMax, job.MaxExperienceYears)
		})
	}
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	job, err := Parse("Title: Growth Marketer\nCompany: Acme\nRun Google Ads.", nil, Overrides{Title: "Paid Media Lead", Company: " Gamma "})
	require.NoError(t, err)
	assert.Equal(t, "Paid Media Lead", job.Title)
	assert.Equal(t, "Gamma", job.Company)

	job, err = Parse("Title: Growth Marketer\nRun Google Ads.", nil, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "Growth Marketer", job.Title)
}

func TestParseRejectsInput(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "  \n ", strings.Repeat("x", profile.MaxJobDescriptionLength+1)} {
		_, err := Parse(text, nil, Overrides{})

		var verr *profile.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "job_description", verr.Field)
	}
}

func ptr(v float64) *float64 {
	return &v
}
