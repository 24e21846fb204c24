package profile

import (
	"slices"
	"strings"
)

// NormalizeSkills lower-cases and trims every entry, collapses inner whitespace,
// drops empties and duplicates and returns the set in sorted order.
// Applying it to its own output is a no-op.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		if normalized := NormalizeSkill(skill); normalized != "" {
			out = append(out, normalized)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizeSkill applies the per-entry part of NormalizeSkills.
func NormalizeSkill(skill string) string {
	return strings.Join(strings.Fields(strings.ToLower(skill)), " ")
}

// SplitSkills treats s as a comma separated list.
func SplitSkills(s string) []string {
	return NormalizeSkills(strings.Split(s, ","))
}
