// Package keywords loads the versioned keyword tables that drive category
// detection, job-description skill extraction and education level matching.
package keywords

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embedded []byte

type file struct {
	Version         string                  `yaml:"version"`
	Categories      map[string]categoryFile `yaml:"categories"`
	EducationLevels map[string][]string     `yaml:"education_levels"`
	Vocabulary      []string                `yaml:"skills_vocabulary"`
}

type categoryFile struct {
	Points   float64             `yaml:"points"`
	Terms    []string            `yaml:"terms"`
	Groups   map[string][]string `yaml:"groups"`
	Patterns []string            `yaml:"patterns"`
}

// Table is a compiled keyword table. It is immutable and safe for concurrent use.
type Table struct {
	version    string
	categories map[string]*Category
	levels     []group
	vocabulary []term
}

// Category detects one enhanced scoring dimension.
type Category struct {
	name     string
	points   float64
	terms    []term
	groups   []group
	patterns []*regexp.Regexp
}

// Detection lists the indicators found for a category.
type Detection struct {
	Matched []string
	Hits    int
}

type term struct {
	text string
	re   *regexp.Regexp
}

type group struct {
	name  string
	terms []term
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Parse(embedded)
}

// Load reads a table from path. An empty path yields the embedded table.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table %q: %w", path, err)
	}

	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("keyword table %q: %w", path, err)
	}
	return table, nil
}

// Parse decodes and compiles a YAML keyword table.
func Parse(data []byte) (*Table, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}

	if strings.TrimSpace(f.Version) == "" {
		return nil, errors.New("keyword table has no version")
	}
	if len(f.Categories) == 0 {
		return nil, errors.New("keyword table has no categories")
	}

	t := &Table{
		version:    strings.TrimSpace(f.Version),
		categories: make(map[string]*Category, len(f.Categories)),
	}

	for name, cf := range f.Categories {
		c, err := compileCategory(name, cf)
		if err != nil {
			return nil, err
		}
		t.categories[name] = c
	}

	levels, err := compileGroups(f.EducationLevels)
	if err != nil {
		return nil, fmt.Errorf("education_levels: %w", err)
	}
	t.levels = levels

	for _, v := range f.Vocabulary {
		tm, err := compileTerm(v)
		if err != nil {
			return nil, fmt.Errorf("skills_vocabulary: %w", err)
		}
		t.vocabulary = append(t.vocabulary, tm)
	}

	return t, nil
}

func compileCategory(name string, cf categoryFile) (*Category, error) {
	if cf.Points <= 0 {
		return nil, fmt.Errorf("category %s: points must be positive", name)
	}
	if len(cf.Terms) == 0 && len(cf.Groups) == 0 && len(cf.Patterns) == 0 {
		return nil, fmt.Errorf("category %s: no terms, groups or patterns", name)
	}

	c := &Category{name: name, points: cf.Points}

	for _, raw := range cf.Terms {
		tm, err := compileTerm(raw)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		c.terms = append(c.terms, tm)
	}

	groups, err := compileGroups(cf.Groups)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", name, err)
	}
	c.groups = groups

	for _, raw := range cf.Patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("category %s: pattern %q: %w", name, raw, err)
		}
		c.patterns = append(c.patterns, re)
	}

	return c, nil
}

func compileGroups(raw map[string][]string) ([]group, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]group, 0, len(names))
	for _, name := range names {
		g := group{name: name}
		for _, text := range raw[name] {
			tm, err := compileTerm(text)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", name, err)
			}
			g.terms = append(g.terms, tm)
		}
		if len(g.terms) == 0 {
			return nil, fmt.Errorf("group %s is empty", name)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// compileTerm matches text as a whole phrase: the neighbours must not be letters or digits.
func compileTerm(text string) (term, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return term{}, errors.New("empty term")
	}
	re, err := regexp.Compile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(text) + `(?:$|[^\p{L}\p{N}])`)
	if err != nil {
		return term{}, fmt.Errorf("term %q: %w", text, err)
	}
	return term{text: text, re: re}, nil
}

// ContainsPhrase reports whether phrase occurs in text as a whole phrase,
// ignoring case. An empty phrase never matches.
func ContainsPhrase(text, phrase string) bool {
	t, err := compileTerm(phrase)
	if err != nil {
		return false
	}
	return t.in(strings.ToLower(text))
}

func (t term) in(text string) bool {
	return t.re.MatchString(text)
}

func (g group) in(text string) bool {
	for _, tm := range g.terms {
		if tm.in(text) {
			return true
		}
	}
	return false
}

func (t *Table) Version() string {
	return t.version
}

func (t *Table) Category(name string) (*Category, bool) {
	c, ok := t.categories[name]
	return c, ok
}

// CategoryNames returns the category names in sorted order.
func (t *Table) CategoryNames() []string {
	names := make([]string, 0, len(t.categories))
	for name := range t.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EducationLevels returns the degree levels mentioned in text, e.g. "bachelor".
func (t *Table) EducationLevels(text string) []string {
	text = strings.ToLower(text)
	var out []string
	for _, g := range t.levels {
		if g.in(text) {
			out = append(out, g.name)
		}
	}
	return out
}

// Skills returns the vocabulary entries mentioned in text, sorted.
func (t *Table) Skills(text string) []string {
	text = strings.ToLower(text)
	var out []string
	for _, tm := range t.vocabulary {
		if tm.in(text) {
			out = append(out, tm.text)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *Category) Name() string {
	return c.name
}

func (c *Category) Points() float64 {
	return c.points
}

// Detect scans lower-cased text for the category's indicators.
func (c *Category) Detect(text string) Detection {
	var d Detection

	for _, tm := range c.terms {
		if tm.in(text) {
			d.Matched = append(d.Matched, tm.text)
			d.Hits++
		}
	}

	for _, g := range c.groups {
		if g.in(text) {
			d.Matched = append(d.Matched, g.name)
			d.Hits++
		}
	}

	for _, re := range c.patterns {
		if m := re.FindString(text); m != "" {
			d.Matched = append(d.Matched, strings.TrimSpace(m))
			d.Hits++
		}
	}

	return d
}

// Score is points per indicator, capped at 100.
func (c *Category) Score(d Detection) float64 {
	return min(float64(d.Hits)*c.points, 100)
}
