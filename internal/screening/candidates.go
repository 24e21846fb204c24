package screening

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
)

// Entry is one screened CV. Exactly one of Result and Error is set.
type Entry struct {
	Source    string                    `json:"source"`
	Profile   *profile.CandidateProfile `json:"profile,omitempty"`
	Result    *scoring.MatchResult      `json:"result,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Retryable bool                      `json:"retryable,omitempty"`
}

func (e *Entry) Failed() bool {
	return e.Result == nil
}

// Name is the candidate name, or the source for entries that failed to parse.
func (e *Entry) Name() string {
	if e.Result != nil && e.Result.CandidateName != "" {
		return e.Result.CandidateName
	}
	return e.Source
}

type Candidates struct {
	Items []*Entry `json:"items"`
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

// Exclude removes the entries drop reports true for and returns their sources.
// Order of the remaining entries is preserved.
func (c *Candidates) Exclude(drop func(*Entry) bool) []string {
	var excluded []string
	kept := c.Items[:0]
	for _, e := range c.Items {
		if drop(e) {
			excluded = append(excluded, e.Source)
			continue
		}
		kept = append(kept, e)
	}
	clear(c.Items[len(kept):])
	c.Items = kept
	return excluded
}

// Rank orders entries by overall score, highest first, then by name.
// Failed entries go last.
func (c *Candidates) Rank() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i], c.Items[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		if !a.Failed() && a.Result.OverallScore != b.Result.OverallScore {
			return a.Result.OverallScore > b.Result.OverallScore
		}
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.Source < b.Source
	})
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "screening_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Report returns one flat row per entry, in the current order.
func (c *Candidates) Report() []map[string]string {
	report := make([]map[string]string, 0, len(c.Items))
	for i, e := range c.Items {
		row := map[string]string{
			"rank":      strconv.Itoa(i + 1),
			"source":    e.Source,
			"candidate": e.Name(),
		}
		if e.Failed() {
			row["error"] = e.Error
			report = append(report, row)
			continue
		}
		row["score"] = fmt.Sprintf("%.1f", e.Result.OverallScore)
		row["recommendation"] = string(e.Result.Recommendation)
		row["confidence"] = strconv.Itoa(e.Result.Confidence)
		row["missing skills"] = strings.Join(e.Result.MissingSkills, ", ")
		report = append(report, row)
	}
	return report
}
