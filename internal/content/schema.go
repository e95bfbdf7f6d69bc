package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const problemSchema = `{
  "type": "object",
  "required": ["answer_choices", "correct_answer"],
  "anyOf": [
    {"required": ["_id"]},
    {"required": ["id"]}
  ],
  "properties": {
    "_id": {"type": "string", "minLength": 1},
    "id": {"type": "string", "minLength": 1},
    "problem_number": {"type": ["integer", "string"]},
    "answer_choices": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "string"}
    },
    "correct_answer": {"type": "string", "minLength": 1},
    "topics": {"type": "array", "items": {"type": "string"}},
    "year": {"type": ["integer", "string"]}
  }
}`

const sessionSchema = `{
  "type": "object",
  "required": ["total_problems"],
  "properties": {
    "session_id": {"type": "string"},
    "total_problems": {"type": "integer", "minimum": 0},
    "shuffle": {"type": "boolean"}
  }
}`

var compiledSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	defs := map[string]string{
		"problem": problemSchema,
		"session": sessionSchema,
	}
	c := jsonschema.NewCompiler()
	out := make(map[string]*jsonschema.Schema, len(defs))
	for name, def := range defs {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(def))
		if err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", name, err)
		}
		url := fmt.Sprintf("schema://%s.json", name)
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = sch
	}
	return out, nil
})

// validate checks raw against the named schema.
func validate(op, name string, raw json.RawMessage) error {
	schemas, err := compiledSchemas()
	if err != nil {
		return &InvalidPayloadError{Op: op, Content: raw, Err: err}
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &InvalidPayloadError{Op: op, Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := schemas[name].Validate(parsed); err != nil {
		return &InvalidPayloadError{Op: op, Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}
