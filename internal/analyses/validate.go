package analyses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseAndValidate extracts the JSON object embedded in raw model output and enforces the response schema.
// The span runs from the first '{' to the last '}'.
func ParseAndValidate(raw string) (ValidatedResponse, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return ValidatedResponse{}, ErrNoJSONFound
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return ValidatedResponse{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	var out ValidatedResponse
	var err error
	if out.MissingSkills, err = stringArray(fields, "missing_skills"); err != nil {
		return ValidatedResponse{}, err
	}
	if n := len(out.MissingSkills); n < MinMissingSkills || n > MaxMissingSkills {
		return ValidatedResponse{}, &SchemaViolation{Field: "missing_skills", Constraint: fmt.Sprintf("must contain between %d and %d items, got %d", MinMissingSkills, MaxMissingSkills, n)}
	}
	if out.LearningSteps, err = stringArray(fields, "learning_steps"); err != nil {
		return ValidatedResponse{}, err
	}
	if n := len(out.LearningSteps); n != LearningStepsCount {
		return ValidatedResponse{}, &SchemaViolation{Field: "learning_steps", Constraint: fmt.Sprintf("must contain exactly %d items, got %d", LearningStepsCount, n)}
	}
	if out.InterviewQuestions, err = stringArray(fields, "interview_questions"); err != nil {
		return ValidatedResponse{}, err
	}
	if n := len(out.InterviewQuestions); n != InterviewQuestionsLen {
		return ValidatedResponse{}, &SchemaViolation{Field: "interview_questions", Constraint: fmt.Sprintf("must contain exactly %d items, got %d", InterviewQuestionsLen, n)}
	}

	rawRoadmap, ok := fields["roadmap_markdown"]
	if !ok || isNull(rawRoadmap) {
		return ValidatedResponse{}, &SchemaViolation{Field: "roadmap_markdown", Constraint: "is required"}
	}
	if err := json.Unmarshal(rawRoadmap, &out.RoadmapMarkdown); err != nil {
		return ValidatedResponse{}, &SchemaViolation{Field: "roadmap_markdown", Constraint: "must be a string"}
	}
	if n := utf8.RuneCountInString(out.RoadmapMarkdown); n < MinRoadmapChars {
		return ValidatedResponse{}, &SchemaViolation{Field: "roadmap_markdown", Constraint: fmt.Sprintf("must be at least %d characters, got %d", MinRoadmapChars, n)}
	}
	return out, nil
}

func stringArray(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil, &SchemaViolation{Field: name, Constraint: "is required"}
	}
	notStrings := &SchemaViolation{Field: name, Constraint: "must be an array of strings"}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, notStrings
	}
	// Decoding straight into []string would turn null items into "".
	out := make([]string, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '"' {
			return nil, notStrings
		}
		if err := json.Unmarshal(item, &out[i]); err != nil {
			return nil, notStrings
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
