// Package prompt renders the scoring prompt sent to every provider.
package prompt

import (
	_ "embed"
	"strings"
)

// MaxExternalChars bounds the harvested profile content embedded in a prompt.
const MaxExternalChars = 3000

const externalHeading = "## Additional information from external links (GitHub, LinkedIn, portfolio)"

//go:embed rubric.md
var rubric string

// Weights are the rubric category weights stated in the prompt.
var Weights = map[string]float64{
	"skills":     0.35,
	"experience": 0.20,
	"projects":   0.20,
	"quality":    0.15,
	"education":  0.05,
	"external":   0.05,
}

// Request holds everything a prompt is rendered from.
type Request struct {
	ResumeText      string
	JobDescription  string
	ExternalContent string
}

// Build renders the rubric prompt for req. The output depends only on req.
func Build(req Request) string {
	replacer := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", strings.TrimSpace(req.JobDescription),
		"{{RESUME_TEXT}}", strings.TrimSpace(req.ResumeText),
		"{{EXTERNAL_SECTION}}", externalSection(req.ExternalContent),
	)
	return replacer.Replace(rubric)
}

func externalSection(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if runes := []rune(content); len(runes) > MaxExternalChars {
		content = string(runes[:MaxExternalChars])
	}

	return "\n" + externalHeading + "\n\n" + content + "\n"
}
