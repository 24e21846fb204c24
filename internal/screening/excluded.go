package screening

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"
)

// Excluded lists CVs already reviewed in earlier runs, so they are not sent
// to the model again.
type Excluded struct {
	Items []*ExcludedCV `json:"items"`
}

type ExcludedCV struct {
	Source       string    `json:"source"`
	Candidate    string    `json:"candidate,omitempty"`
	OverallScore float64   `json:"overall_score,omitempty"`
	ExcludedAt   time.Time `json:"excluded_at"`
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list.
func LoadExcluded(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Excluded{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *Excluded) Append(other *Excluded) {
	for _, item := range other.Items {
		if !slices.Contains(e.Sources(), item.Source) {
			e.Items = append(e.Items, item)
		}
	}
}

func (e *Excluded) Sources() []string {
	sources := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		sources = append(sources, item.Source)
	}
	return sources
}

// ToFile replaces the content of path with e.
func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// Filter returns the documents whose source is not excluded, and the sources it skipped.
func (e *Excluded) Filter(docs []Document) ([]Document, []string) {
	sources := e.Sources()
	kept := make([]Document, 0, len(docs))
	var skipped []string
	for _, doc := range docs {
		if slices.Contains(sources, doc.Source) {
			skipped = append(skipped, doc.Source)
			continue
		}
		kept = append(kept, doc)
	}
	return kept, skipped
}

// ToExcluded records every entry of c, failed ones included, as reviewed at now.
func (c *Candidates) ToExcluded(now time.Time) *Excluded {
	excluded := &Excluded{}
	for _, entry := range c.Items {
		item := &ExcludedCV{Source: entry.Source, ExcludedAt: now.UTC()}
		if !entry.Failed() {
			item.Candidate = entry.Name()
			item.OverallScore = entry.Result.OverallScore
		}
		excluded.Items = append(excluded.Items, item)
	}
	return excluded
}
