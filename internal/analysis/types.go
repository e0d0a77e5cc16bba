// Package analysis turns free-form provider replies into structured judgments
// and merges them into a consensus report.
package analysis

// Breakdown holds the per-category rubric scores, each in [0,100].
type Breakdown struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
	Projects   int `json:"projects"`
	Quality    int `json:"quality"`
	Education  int `json:"education"`
	External   int `json:"external"`
}

// HighlightPair links a job description phrase to the resume excerpt supporting it.
type HighlightPair struct {
	JDPhrase      string `json:"jd_phrase"`
	ResumeExcerpt string `json:"resume_excerpt"`
}

// Parsed is one provider's structured judgment. Score is nil when the
// provider gave none. List fields are never nil.
type Parsed struct {
	Score             *int            `json:"score"`
	Breakdown         Breakdown       `json:"breakdown"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	SuggestedKeywords []string        `json:"suggested_keywords"`
	HighlightPairs    []HighlightPair `json:"highlight_pairs"`
}

// Report is the consensus across all providers that produced a Parsed value.
type Report struct {
	Score             *int            `json:"score"`
	Breakdown         *Breakdown      `json:"breakdown"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	SuggestedKeywords []string        `json:"suggested_keywords"`
	HighlightPairs    []HighlightPair `json:"highlight_pairs"`
	LLMCount          int             `json:"llm_count"`
	IndividualScores  []*int          `json:"individual_scores"`
	Note              string          `json:"note,omitempty"`
}
