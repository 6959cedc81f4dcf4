package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const gradeSchemaURL = "schema://short-answer-grade.json"

// gradeSchema is the shape every grading reply must have.
var gradeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 100,
		},
		"feedback": map[string]any{"type": "string"},
		"points_covered": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"points_missed": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []any{"score", "feedback"},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiledGradeSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// Round-trip so the compiler sees plain decoded JSON values.
		raw, err := json.Marshal(gradeSchema)
		if err != nil {
			compileErr = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = err
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(gradeSchemaURL, doc); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile(gradeSchemaURL)
	})
	return compiledSchema, compileErr
}

// validateGrade checks a decoded reply against the grade schema.
func validateGrade(payload []byte) error {
	schema, err := compiledGradeSchema()
	if err != nil {
		return fmt.Errorf("failed to compile grade schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
