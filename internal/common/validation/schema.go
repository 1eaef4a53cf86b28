// Package validation checks inbound command payloads before they become
// queries.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CommandSchema accepts any object whose known fields are strings. Text may
// be empty or absent; emptiness is handled by the command itself.
const CommandSchema = `{
  "type": "object",
  "properties": {
    "text":            {"type": "string"},
    "callbackAddress": {"type": "string"},
    "channelId":       {"type": "string"},
    "messageId":       {"type": "string"}
  }
}`

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error joins every violation into one line for logs.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator holds a compiled schema and may be shared between goroutines.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// NewCommandValidator compiles CommandSchema.
func NewCommandValidator() (*Validator, error) {
	return NewValidator(CommandSchema)
}

// ValidateBytes validates a raw JSON document. A body that is not JSON at
// all is reported as an error rather than a result.
func (v *Validator) ValidateBytes(body []byte) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func (v *Validator) ValidateMap(doc map[string]interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out
}
