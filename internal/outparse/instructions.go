package outparse

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"llm-kit/internal/schema"
)

const formatInstructionsTemplate = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```" + `
{schema}
` + "```"

// FormatInstructions renders prompt text describing s. The top-level title and
// type keys are dropped; nested ones are kept.
func FormatInstructions(s *schema.Schema) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	var reduced map[string]any
	if err := json.Unmarshal(raw, &reduced); err != nil {
		return "", fmt.Errorf("reduce schema: %w", err)
	}
	delete(reduced, "title")
	delete(reduced, "type")

	out, err := json.Marshal(reduced)
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	return strings.Replace(formatInstructionsTemplate, "{schema}", string(out), 1), nil
}
