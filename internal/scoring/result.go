package scoring

// Evidence explains one sub-score so callers can render it without recomputing.
type Evidence struct {
	Score   float64            `json:"score"`
	Weight  float64            `json:"weight"`
	Summary string             `json:"summary,omitempty"`
	Matched []string           `json:"matched,omitempty"`
	Missing []string           `json:"missing,omitempty"`
	Values  map[string]float64 `json:"values,omitempty"`
}

// MatchResult is produced once per scoring call and not modified afterwards.
type MatchResult struct {
	CandidateName   string              `json:"candidate_name"`
	JobTitle        string              `json:"job_title"`
	Mode            Mode                `json:"mode"`
	OverallScore    float64             `json:"overall_score"`
	SubScores       map[string]float64  `json:"sub_scores"`
	MatchedSkills   []string            `json:"matched_skills"`
	MissingSkills   []string            `json:"missing_skills"`
	Recommendation  Recommendation      `json:"recommendation"`
	Confidence      int                 `json:"confidence"`
	Evidence        map[string]Evidence `json:"evidence"`
	KeywordsVersion string              `json:"keywords_version,omitempty"`
}
