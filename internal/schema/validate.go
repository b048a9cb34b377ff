package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FieldError is a single validation failure at a value path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return displayPath(e.Path) + ": " + e.Message
}

// ValidationError lists every mismatch between a value and its schema.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	noun := "errors"
	if len(parts) == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%d validation %s: %s", len(parts), noun, strings.Join(parts, "; "))
}

// Validate checks a decoded JSON value (maps, slices, float64 or json.Number,
// string, bool, nil) against the schema. Properties not declared in the schema are allowed.
// It returns a *ValidationError when the value does not conform.
func (s *Schema) Validate(v any) error {
	var errs []FieldError
	s.validate("", v, &errs)
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

func (s *Schema) validate(path string, v any, errs *[]FieldError) {
	fail := func(format string, args ...any) {
		*errs = append(*errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if v == nil {
		if s.Nullable || s.Type == "" || s.Type == TypeNull {
			return
		}
		fail("expected %s, got null", s.Type)
		return
	}

	switch s.Type {
	case "":
	case TypeString:
		if _, ok := v.(string); !ok {
			fail("expected string, got %s", kindOf(v))
			return
		}
	case TypeInteger:
		if _, ok := toFloat(v); !ok {
			fail("expected integer, got %s", kindOf(v))
			return
		}
		if !isInteger(v) {
			fail("expected integer, got fractional number %v", v)
			return
		}
	case TypeNumber:
		if _, ok := toFloat(v); !ok {
			fail("expected number, got %s", kindOf(v))
			return
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			fail("expected boolean, got %s", kindOf(v))
			return
		}
	case TypeNull:
		fail("expected null, got %s", kindOf(v))
		return
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			fail("expected array, got %s", kindOf(v))
			return
		}
		if s.Items != nil {
			for i, item := range items {
				s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, errs)
			}
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			fail("expected object, got %s", kindOf(v))
			return
		}
		for _, name := range s.Required {
			if _, present := obj[name]; !present {
				*errs = append(*errs, FieldError{Path: join(path, name), Message: "field required"})
			}
		}
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			val, present := obj[name]
			if !present {
				continue
			}
			s.Properties[name].validate(join(path, name), val, errs)
		}
	}

	if len(s.Enum) > 0 && !inEnum(v, s.Enum) {
		fail("value %v is not one of %v", v, s.Enum)
	}
}

func inEnum(v any, enum []any) bool {
	for _, e := range enum {
		if equalScalar(v, e) {
			return true
		}
	}
	return false
}

func equalScalar(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch a.(type) {
	case string, bool:
		return a == b
	}
	return false
}

// isInteger reports whether a numeric value has no fractional part. JSON
// literals are judged from their text, so integers beyond float64 precision
// are still integers.
func isInteger(v any) bool {
	if n, ok := v.(json.Number); ok {
		if _, err := n.Int64(); err == nil {
			return true
		}
		lit := n.String()
		if !strings.ContainsAny(lit, ".eE") {
			return true
		}
	}
	f, ok := toFloat(v)
	return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil || errors.Is(err, strconv.ErrRange)
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case json.Number:
		return "number"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
