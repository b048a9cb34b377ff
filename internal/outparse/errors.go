package outparse

import "errors"

// Kind classifies a parse failure.
type Kind string

const (
	// KindDecode means the text was not valid JSON.
	KindDecode Kind = "decode"
	// KindValidation means the JSON did not match the target schema or type.
	KindValidation Kind = "validation"
)

var (
	ErrDecode     = errors.New("output is not valid JSON")
	ErrValidation = errors.New("output does not match schema")
)

// ParseError is the single failure type returned by parsers.
// errors.Is(err, ErrDecode) and errors.Is(err, ErrValidation) classify it.
type ParseError struct {
	Kind    Kind
	Message string
	// LLMOutput is the offending text: the raw completion for decode
	// failures, the re-serialized JSON for validation failures.
	LLMOutput string
	// SchemaName is set for validation failures.
	SchemaName string
	Err        error
}

func (e *ParseError) Error() string { return e.Message }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}
