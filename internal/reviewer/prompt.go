package reviewer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"cv-reviewer/internal/review"
)

const persona = "You are a professional CV reviewer and career coach. " +
	"Provide a detailed analysis of the CV with percentage scores. Focus on: " +
	"1. Overall structure and formatting (score this out of 100), " +
	"2. Content quality and clarity (score this out of 100), " +
	"3. Skills presentation (score this out of 100), " +
	"4. Experience highlights (score this out of 100), " +
	"5. Specific improvement suggestions. " +
	"Also provide an overall CV score based on the average of the four scored sections. " +
	"For each section, explain the reasoning behind the score and what could be improved. " +
	"Use a professional and constructive tone."

const outputRules = "Respond with a single JSON object and nothing else: no Markdown, no code fences, no commentary. " +
	"Every score must be an integer from 0 to 100. Every field in the schema is required and no other fields are allowed. " +
	"The JSON object must match this JSON Schema:"

// SystemPrompt returns the reviewer persona, the rubric and the output
// contract.
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(outputRules)
	b.WriteString("\n")
	b.WriteString(review.Describe())
	return b.String()
}

// BuildUserMessage wraps the CV text for the model. Text longer than limit
// runes is cut and the model is told so; truncated reports whether that
// happened. A limit of zero or less disables truncation.
func BuildUserMessage(text string, limit int) (msg string, truncated bool) {
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = truncateRunes(text, limit)
		truncated = true
	}
	msg = "Here is the CV content:\n\n" + text
	if truncated {
		msg += fmt.Sprintf("\n\n[Note: the CV text was truncated to its first %d characters.]", limit)
	}
	return msg, truncated
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
