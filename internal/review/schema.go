package review

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "review.schema.json"

var compiledSchema = mustCompile()

// JSONSchema returns the Review shape as a JSON Schema document. It is both
// the instruction given to the model and the contract its output is
// validated against.
func JSONSchema() map[string]any {
	props := make(map[string]any, len(Categories)+1)
	required := make([]string, 0, len(Categories)+1)
	for _, cat := range Categories {
		props[cat.Key] = categorySchema(cat.Description)
		required = append(required, cat.Key)
	}
	props[suggestionsKey] = map[string]any{
		"type":        "array",
		"description": "Specific improvement suggestions",
		"items":       map[string]any{"type": "string"},
	}
	required = append(required, suggestionsKey)

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "CVReview",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func categorySchema(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			scoreKey: map[string]any{
				"type":        "integer",
				"minimum":     MinScore,
				"maximum":     MaxScore,
				"description": fmt.Sprintf("Score for the category (%d to %d)", MinScore, MaxScore),
			},
			reasoningKey: map[string]any{
				"type":        "string",
				"description": "Reasoning behind the score",
			},
		},
		"required":             []string{scoreKey, reasoningKey},
		"additionalProperties": false,
	}
}

// Describe renders the schema as indented JSON for embedding in a prompt.
func Describe() string {
	b, err := json.MarshalIndent(JSONSchema(), "", "  ")
	if err != nil {
		panic(fmt.Sprintf("review schema: %v", err))
	}
	return string(b)
}

func mustCompile() *jsonschema.Schema {
	b, err := json.Marshal(JSONSchema())
	if err != nil {
		panic(fmt.Sprintf("review schema: marshal: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("review schema: add resource: %v", err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("review schema: compile: %v", err))
	}
	return schema
}
