package analysis

import "math"

const (
	maxStrengths      = 6
	maxWeaknesses     = 6
	maxKeywords       = 12
	maxHighlightPairs = 6

	// NoResponsesNote explains an empty report.
	NoResponsesNote = "No valid LLM responses received"
)

// Aggregate merges per-provider results, given in provider order with nil for
// providers that produced nothing usable. Scores are averaged over the usable
// results and rounded half away from zero; list fields are concatenated in
// provider order, deduplicated and capped.
func Aggregate(results []*Parsed) *Report {
	individual := make([]*int, len(results))
	valid := make([]*Parsed, 0, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		valid = append(valid, r)
		if r.Score != nil {
			score := *r.Score
			individual[i] = &score
		}
	}

	if len(valid) == 0 {
		return &Report{
			Strengths:         []string{},
			Weaknesses:        []string{},
			SuggestedKeywords: []string{},
			HighlightPairs:    []HighlightPair{},
			IndividualScores:  individual,
			Note:              NoResponsesNote,
		}
	}

	var (
		score float64
		sum   [6]float64
	)
	strengths := make([]string, 0)
	weaknesses := make([]string, 0)
	keywords := make([]string, 0)
	pairs := make([]HighlightPair, 0)

	for _, v := range valid {
		if v.Score != nil {
			score += float64(*v.Score)
		}

		b := v.Breakdown
		for i, value := range []int{b.Skills, b.Experience, b.Projects, b.Quality, b.Education, b.External} {
			sum[i] += float64(value)
		}

		strengths = append(strengths, v.Strengths...)
		weaknesses = append(weaknesses, v.Weaknesses...)
		keywords = append(keywords, v.SuggestedKeywords...)
		pairs = append(pairs, v.HighlightPairs...)
	}

	n := float64(len(valid))
	mean := func(total float64) int { return int(math.Round(total / n)) }

	overall := mean(score)
	return &Report{
		Score: &overall,
		Breakdown: &Breakdown{
			Skills:     mean(sum[0]),
			Experience: mean(sum[1]),
			Projects:   mean(sum[2]),
			Quality:    mean(sum[3]),
			Education:  mean(sum[4]),
			External:   mean(sum[5]),
		},
		Strengths:         capped(dedupe(strengths), maxStrengths),
		Weaknesses:        capped(dedupe(weaknesses), maxWeaknesses),
		SuggestedKeywords: capped(dedupe(keywords), maxKeywords),
		HighlightPairs:    capped(pairs, maxHighlightPairs),
		LLMCount:          len(valid),
		IndividualScores:  individual,
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func capped[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
