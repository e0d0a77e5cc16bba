package analysis

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var fenceMarker = regexp.MustCompile("```[A-Za-z]*")

type wireAnalysis struct {
	Score             *float64      `mapstructure:"score"`
	Breakdown         wireBreakdown `mapstructure:"breakdown"`
	Strengths         []string      `mapstructure:"strengths"`
	Weaknesses        []string      `mapstructure:"weaknesses"`
	SuggestedKeywords []string      `mapstructure:"suggested_keywords"`
	HighlightPairs    []wirePair    `mapstructure:"highlight_pairs"`
}

type wireBreakdown struct {
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
	Projects   float64 `mapstructure:"projects"`
	Quality    float64 `mapstructure:"quality"`
	Education  float64 `mapstructure:"education"`
	External   float64 `mapstructure:"external"`
}

type wirePair struct {
	JDPhrase      string `mapstructure:"jd_phrase"`
	ResumeExcerpt string `mapstructure:"resume_excerpt"`
}

// Parse extracts a structured judgment from a raw provider reply. Code fences
// are stripped and the text between the first '{' and the last '}' is decoded.
// Any failure yields nil.
func Parse(raw string) *Parsed {
	candidate, ok := extractObject(raw)
	if !ok {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil
	}

	var wire wireAnalysis
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       scoreSuffixHook,
		Result:           &wire,
	})
	if err != nil {
		return nil
	}
	if err := decoder.Decode(data); err != nil {
		return nil
	}

	return wire.normalize()
}

// extractObject strips fence markers and returns the outermost {...} span.
func extractObject(raw string) (string, bool) {
	cleaned := fenceMarker.ReplaceAllString(raw, "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end < start {
		return "", false
	}

	return cleaned[start : end+1], true
}

// scoreSuffixHook accepts numbers written as "85%" or "85/100".
func scoreSuffixHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Float64 {
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "/100")
	return strings.TrimSpace(s), nil
}

func (w wireAnalysis) normalize() *Parsed {
	p := &Parsed{
		Breakdown: Breakdown{
			Skills:     toScore(w.Breakdown.Skills),
			Experience: toScore(w.Breakdown.Experience),
			Projects:   toScore(w.Breakdown.Projects),
			Quality:    toScore(w.Breakdown.Quality),
			Education:  toScore(w.Breakdown.Education),
			External:   toScore(w.Breakdown.External),
		},
		Strengths:         cleanList(w.Strengths),
		Weaknesses:        cleanList(w.Weaknesses),
		SuggestedKeywords: cleanList(w.SuggestedKeywords),
		HighlightPairs:    make([]HighlightPair, 0, len(w.HighlightPairs)),
	}

	if w.Score != nil && !math.IsNaN(*w.Score) {
		score := toScore(*w.Score)
		p.Score = &score
	}

	for _, pair := range w.HighlightPairs {
		jd := strings.TrimSpace(pair.JDPhrase)
		excerpt := strings.TrimSpace(pair.ResumeExcerpt)
		if jd == "" && excerpt == "" {
			continue
		}
		p.HighlightPairs = append(p.HighlightPairs, HighlightPair{JDPhrase: jd, ResumeExcerpt: excerpt})
	}

	return p
}

// toScore rounds half away from zero and clamps into [0,100].
func toScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(v))))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
