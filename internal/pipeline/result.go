package pipeline

import "github.com/spigell/resume-scorer/internal/analysis"

// Result is the payload returned for one analyzed resume.
type Result struct {
	Success       bool             `json:"success"`
	Analysis      *analysis.Report `json:"analysis"`
	ExtractedText string           `json:"extractedText"`
	ExternalLinks []string         `json:"externalLinks"`
	ResumeURL     string           `json:"resumeUrl,omitempty"`
	ResumeHash    string           `json:"resumeHash,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// Extraction is the payload of a text-only extraction.
type Extraction struct {
	Success       bool     `json:"success"`
	Text          string   `json:"text"`
	Length        int      `json:"length"`
	WordCount     int      `json:"wordCount"`
	ExternalLinks []string `json:"externalLinks"`
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
