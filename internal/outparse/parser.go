package outparse

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"llm-kit/internal/llm"
	"llm-kit/internal/schema"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Parser decodes LLM output into T after checking it against a target schema.
// Struct types are additionally checked against their `validate` tags.
// Numbers landing in untyped targets (any, map[string]any) are json.Number.
// A Parser holds no mutable state and is safe for concurrent use.
type Parser[T any] struct {
	schema       *schema.Schema
	name         string
	instructions string
	json         *JSONParser
}

// NewParser builds a parser for T described by s. The schema title names the
// target in error messages, falling back to T's Go type name.
func NewParser[T any](s *schema.Schema) (*Parser[T], error) {
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("invalid target schema: %w", err)
	}
	instructions, err := FormatInstructions(s)
	if err != nil {
		return nil, err
	}
	name := s.Title
	if name == "" {
		t := reflect.TypeFor[T]()
		name = t.Name()
		if name == "" {
			name = t.String()
		}
	}
	return &Parser[T]{
		schema:       s,
		name:         name,
		instructions: instructions,
		json:         NewJSONParser(),
	}, nil
}

// Name is the target name used in validation failures.
func (p *Parser[T]) Name() string { return p.name }

// Schema returns the target schema. Callers must not modify it.
func (p *Parser[T]) Schema() *schema.Schema { return p.schema }

// FormatInstructions returns prompt text telling a model which JSON to emit.
func (p *Parser[T]) FormatInstructions() string { return p.instructions }

// Parse decodes and validates a single completion.
func (p *Parser[T]) Parse(text string) (T, error) {
	var zero T
	v, err := p.json.Parse(text)
	if err != nil {
		return zero, err
	}
	return p.build(v, false)
}

// ParseResult parses the first generation. In partial mode validation is
// skipped and, while nothing is decodable yet, the zero T is returned with a
// nil error.
func (p *Parser[T]) ParseResult(gens []llm.Generation, opts ...ParseOption) (T, error) {
	var zero T
	partial := collectOptions(opts).partial
	v, err := p.json.ParseResult(gens, opts...)
	if err != nil {
		return zero, err
	}
	if partial && v == nil {
		return zero, nil
	}
	return p.build(v, partial)
}

func (p *Parser[T]) build(v any, partial bool) (T, error) {
	var out T
	if !partial {
		if err := p.schema.Validate(v); err != nil {
			return out, p.validationError(v, err)
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, p.validationError(v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, p.validationError(v, err)
	}
	if !partial && isStruct(out) {
		if err := structValidator.Struct(out); err != nil {
			return out, p.validationError(v, err)
		}
	}
	return out, nil
}

func (p *Parser[T]) validationError(v any, err error) *ParseError {
	encoded, mErr := json.Marshal(v)
	if mErr != nil {
		encoded = []byte(fmt.Sprintf("%v", v))
	}
	return &ParseError{
		Kind:       KindValidation,
		Message:    fmt.Sprintf("Failed to parse %s from completion %s. Got: %v", p.name, encoded, err),
		LLMOutput:  string(encoded),
		SchemaName: p.name,
		Err:        err,
	}
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}
