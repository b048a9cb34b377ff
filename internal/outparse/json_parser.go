package outparse

import (
	"fmt"

	"llm-kit/internal/llm"
)

// ParseOption tunes a single ParseResult call.
type ParseOption func(*parseOptions)

type parseOptions struct {
	partial bool
}

// WithPartial accepts truncated JSON, as seen mid-stream. Missing fields are
// left out and no schema validation is performed.
func WithPartial() ParseOption {
	return func(o *parseOptions) { o.partial = true }
}

func collectOptions(opts []ParseOption) parseOptions {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// JSONParser decodes LLM output into untyped JSON values
// (map[string]any, []any, json.Number, string, bool, nil).
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

// Parse decodes text, tolerating a surrounding Markdown code fence.
func (p *JSONParser) Parse(text string) (any, error) {
	v, err := decodeStrict(text)
	if err != nil {
		return nil, decodeError(text, err)
	}
	return v, nil
}

// ParseResult decodes the first generation. In partial mode a completion
// with nothing decodable yet yields (nil, nil).
func (p *JSONParser) ParseResult(gens []llm.Generation, opts ...ParseOption) (any, error) {
	if len(gens) == 0 {
		return nil, &ParseError{
			Kind:    KindDecode,
			Message: "Invalid json output: no generations to parse",
			Err:     ErrDecode,
		}
	}
	text := gens[0].Text
	if collectOptions(opts).partial {
		v, _ := decodePartial(text)
		return v, nil
	}
	return p.Parse(text)
}

// FormatInstructions asks for any JSON object.
func (p *JSONParser) FormatInstructions() string {
	return "Return a JSON object."
}

func decodeError(text string, err error) *ParseError {
	return &ParseError{
		Kind:      KindDecode,
		Message:   fmt.Sprintf("Invalid json output: %s", text),
		LLMOutput: text,
		Err:       err,
	}
}
