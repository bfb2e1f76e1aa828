package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

const schemaURL = "submission.schema.json"

// maxInt is the largest number of questionnaire.MaxDigits digits.
const maxInt int64 = 999_999_999_999_999_999

// imagePattern accepts an empty value or an inline image encoding.
const imagePattern = `^(data:image/(png|jpeg|gif|webp|bmp);base64,[A-Za-z0-9+/=]*)?$`

// SubmissionSchema returns the JSON Schema of a submission payload, built
// from the field catalog. Unknown keys are allowed and dropped on insert.
func SubmissionSchema() map[string]any {
	props := make(map[string]any)
	for _, f := range questionnaire.Fields() {
		switch f.Kind {
		case questionnaire.KindInt:
			props[f.Name] = map[string]any{
				"type":      []string{"integer", "string", "null"},
				"pattern":   `^[0-9]*$`,
				"maxLength": questionnaire.MaxDigits,
				"minimum":   0,
				"maximum":   maxInt,
			}
		case questionnaire.KindBool:
			props[f.Name] = map[string]any{"type": []string{"boolean", "null"}}
		case questionnaire.KindImage:
			props[f.Name] = map[string]any{
				"type":    []string{"string", "null"},
				"pattern": imagePattern,
			}
		default:
			props[f.Name] = map[string]any{
				"type":      []string{"string", "number", "null"},
				"maxLength": 10000,
			}
		}
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "Medical questionnaire submission",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
}

// Validator checks submission payloads against SubmissionSchema.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	raw, err := json.Marshal(SubmissionSchema())
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns an error wrapping ErrInvalid that names the first
// offending field.
func (v *Validator) Validate(a questionnaire.Answers) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// describe reduces a validation tree to its deepest first cause.
func describe(e *jsonschema.ValidationError) string {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	loc := e.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + e.Message
}
