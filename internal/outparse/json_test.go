package outparse

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-kit/internal/llm"
)

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"plain object", `{"a": 1}`, map[string]any{"a": json.Number("1")}},
		{"surrounding whitespace", "  \n{\"a\": \"b\"}\n ", map[string]any{"a": "b"}},
		{"json fence", "```json\n{\"a\": 1}\n```", map[string]any{"a": json.Number("1")}},
		{"bare fence with trailing prose", "Here you go:\n```\n[1, 2]\n```\nAnything else?", []any{json.Number("1"), json.Number("2")}},
		{"unterminated fence", "```json\n{\"a\": true}", map[string]any{"a": true}},
		{"scalar", `"just a string"`, "just a string"},
		{"large integer", `{"id": 1234567890123456789}`, map[string]any{"id": json.Number("1234567890123456789")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeStrict(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStrictRejects(t *testing.T) {
	for _, text := range []string{
		"{not valid",
		`{"a": 1`,
		"Sure! {\"a\": 1}",
		"",
		"```json\n{broken}\n```",
		`{"a": 1} {"b": 2}`,
		`{"a": 1} trailing`,
	} {
		_, err := decodeStrict(text)
		assert.Error(t, err, "text %q", text)
	}
}

func TestCompleteJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
		ok   bool
	}{
		{"open array in object", `{"a": [1, 2`, map[string]any{"a": []any{json.Number("1"), json.Number("2")}}, true},
		{"open array", `[`, []any{}, true},
		{"open string", `{"a": "hel`, map[string]any{"a": "hel"}, true},
		{"raw newline in string", "{\"a\": \"line1\nline2", map[string]any{"a": "line1\nline2"}, true},
		{"dangling escape", `{"a": "x\`, map[string]any{"a": "x"}, true},
		{"escaped quote kept", `{"a": "say \"hi`, map[string]any{"a": `say "hi`}, true},
		{"dangling key", `{"a": "b", "c`, map[string]any{"a": "b"}, true},
		{"partial literal", `{"a": tr`, map[string]any{}, true},
		{"partial number", `{"a": 1, "b": 12.`, map[string]any{"a": json.Number("1"), "b": json.Number("12")}, true},
		{"trailing comma", `{"a": [1,`, map[string]any{"a": []any{json.Number("1")}}, true},
		{"closed value then garbage", `{"a": {"b": 1}, "c": xyz`, map[string]any{"a": map[string]any{"b": json.Number("1")}}, true},
		{"nested objects", `{"a": {"b": {"c": 1`, map[string]any{"a": map[string]any{"b": map[string]any{"c": json.Number("1")}}}, true},
		{"mismatched bracket", `{]`, nil, false},
		{"empty", ``, nil, false},
		{"garbage", `hello`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := completeJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompleteJSONLargeInputIsBounded(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
		ok   bool
	}{
		{"long garbage value", `{"a": 1, "b": ` + strings.Repeat("x", 200000), map[string]any{"a": json.Number("1")}, true},
		{"long garbage string", `{"a": 1, "b": "` + strings.Repeat("x", 200000), nil, true},
		{"many bad separators", `[` + strings.Repeat("x,", 100000), nil, false},
		{"deep nesting", strings.Repeat(`{"a": [`, 200) + "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			got, ok := completeJSON(tt.text)
			assert.Less(t, time.Since(start), 2*time.Second)
			assert.Equal(t, tt.ok, ok)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodePartialInsideFence(t *testing.T) {
	got, ok := decodePartial("```json\n{\"name\": \"To")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "To"}, got)
}

func TestJSONParser(t *testing.T) {
	p := NewJSONParser()

	v, err := p.Parse(`{"x": [true]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": []any{true}}, v)

	_, err = p.Parse("{not valid")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = p.ParseResult(nil)
	assert.ErrorIs(t, err, ErrDecode)

	v, err = p.ParseResult([]llm.Generation{{Text: `{"x": [tr`}}, WithPartial())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": []any{}}, v)

	v, err = p.ParseResult([]llm.Generation{{Text: `nothing yet`}}, WithPartial())
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Equal(t, "Return a JSON object.", p.FormatInstructions())
}
