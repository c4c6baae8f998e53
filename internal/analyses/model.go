package analyses

import "time"

// Analysis is a persisted gap analysis keyed by the fingerprint of its inputs.
type Analysis struct {
	ID                 string    `json:"id"`
	CacheKey           string    `json:"cacheKey"`
	ResumeText         string    `json:"-"`
	JobDescriptionText string    `json:"-"`
	MissingSkills      []string  `json:"missingSkills"`
	LearningSteps      []string  `json:"learningSteps"`
	InterviewQuestions []string  `json:"interviewQuestions"`
	RoadmapMarkdown    string    `json:"roadmapMarkdown"`
	AccessCount        int       `json:"accessCount"`
	LastAccessedAt     time.Time `json:"lastAccessedAt"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ValidatedResponse is model output that passed extraction and schema checks.
type ValidatedResponse struct {
	MissingSkills      []string `json:"missing_skills"`
	LearningSteps      []string `json:"learning_steps"`
	InterviewQuestions []string `json:"interview_questions"`
	RoadmapMarkdown    string   `json:"roadmap_markdown"`
}

// Stats aggregates the cache contents.
type Stats struct {
	TotalAnalyses      int64   `json:"totalAnalyses"`
	AverageAccessCount float64 `json:"averageAccessCount"`
}

// Input length limits, counted in characters.
const (
	MinResumeChars         = 50
	MaxResumeChars         = 50000
	MinJobDescriptionChars = 20
	MaxJobDescriptionChars = 20000
)

// Response schema limits.
const (
	MinMissingSkills      = 1
	MaxMissingSkills      = 20
	LearningStepsCount    = 3
	InterviewQuestionsLen = 3
	MinRoadmapChars       = 100
)

// DefaultCleanupDays is used when cleanup is requested without an age.
const DefaultCleanupDays = 90

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func (a Analysis) clone() Analysis {
	a.MissingSkills = cloneStrings(a.MissingSkills)
	a.LearningSteps = cloneStrings(a.LearningSteps)
	a.InterviewQuestions = cloneStrings(a.InterviewQuestions)
	return a
}
