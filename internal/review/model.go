// Package review defines the structured CV review returned to callers, the
// JSON Schema the language model is asked to follow, and the decoding and
// validation of model output into that shape.
package review

// ScoredCategory is one rubric dimension's grade and its justification.
type ScoredCategory struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Review is the structured critique of a CV.
type Review struct {
	OverallStructure       ScoredCategory `json:"overall_structure"`
	ContentQuality         ScoredCategory `json:"content_quality"`
	SkillsPresentation     ScoredCategory `json:"skills_presentation"`
	ExperienceHighlights   ScoredCategory `json:"experience_highlights"`
	OverallScore           ScoredCategory `json:"overall_score"`
	ImprovementSuggestions []string       `json:"improvement_suggestions"`
}

// Envelope is the success response body.
type Envelope struct {
	Review Review `json:"review"`
}

// Category describes a scored rubric dimension.
type Category struct {
	Key         string
	Description string
}

// Categories lists the rubric dimensions in response order.
var Categories = []Category{
	{Key: "overall_structure", Description: "Overall structure and formatting"},
	{Key: "content_quality", Description: "Content quality and clarity"},
	{Key: "skills_presentation", Description: "Skills presentation"},
	{Key: "experience_highlights", Description: "Experience highlights"},
	{Key: "overall_score", Description: "Overall CV score as a percentage, the average of the other four categories"},
}

const (
	suggestionsKey = "improvement_suggestions"
	scoreKey       = "score"
	reasoningKey   = "reasoning"

	MinScore = 0
	MaxScore = 100
)

// Scores returns the five categories keyed by their JSON names.
func (r Review) Scores() map[string]ScoredCategory {
	return map[string]ScoredCategory{
		"overall_structure":     r.OverallStructure,
		"content_quality":       r.ContentQuality,
		"skills_presentation":   r.SkillsPresentation,
		"experience_highlights": r.ExperienceHighlights,
		"overall_score":         r.OverallScore,
	}
}
