// Package validation checks inbound trigger payloads against JSON schemas
// before they reach the pipeline.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// triggerRequestSchema constrains the optional criteria overrides accepted by
// the manual trigger endpoint. Unknown fields are rejected so typos do not
// silently run with default criteria.
var triggerRequestSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"category": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"minDiscount": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 100,
		},
		"maxPrice": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
		"minRating": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 5,
		},
		"minReviews": map[string]interface{}{
			"type":    "integer",
			"minimum": 0,
		},
		"inStockOnly": map[string]interface{}{
			"type": "boolean",
		},
		"brands": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"flavors": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

// ValidateTriggerRequest validates a decoded trigger request body.
func ValidateTriggerRequest(payload map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(triggerRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}
