package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/gap_analysis.txt
var gapAnalysisTemplate string

// BuildPrompt renders the gap analysis instructions around the raw, unnormalized documents.
func BuildPrompt(resumeText, jobDescriptionText string) string {
	replacer := strings.NewReplacer(
		"{{RESUME}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescriptionText,
	)
	return replacer.Replace(gapAnalysisTemplate)
}
