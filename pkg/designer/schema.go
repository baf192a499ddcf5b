package designer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// templateSchema is the structural contract for authored workflow graphs.
// Linearize enforces the shape of the graph; this enforces the shape of the
// document.
var templateSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "nodes"},
	"properties": map[string]any{
		"name": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"nodes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "type"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{"type": "string", "minLength": 1},
					"data": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"label": map[string]any{"type": "string"},
							"email": map[string]any{"type": "string"},
							"requirements": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"source", "target"},
				"properties": map[string]any{
					"id":     map[string]any{"type": "string"},
					"source": map[string]any{"type": "string", "minLength": 1},
					"target": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	},
}

// validateTemplateSchema validates a decoded template document against the
// graph schema.
func validateTemplateSchema(template any) error {
	schemaLoader := gojsonschema.NewGoLoader(templateSchema)
	dataLoader := gojsonschema.NewGoLoader(template)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, error := range result.Errors() {
			errors = append(errors, error.String())
		}

		return fmt.Errorf("workflow template validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
