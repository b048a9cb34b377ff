package outparse

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?(.*?)(?:```|$)")

// Bounds on partial completion: how many runes of the last token are trimmed,
// and how many token boundaries are retried, newest first.
const (
	maxPartialCuts  = 64
	maxTrailingTrim = 8
)

var errInvalidJSON = errors.New("invalid JSON")

// decodeStrict decodes text as exactly one JSON value. When the whole text is
// not JSON, the body of the first Markdown code fence is tried instead.
func decodeStrict(text string) (any, error) {
	v, err := decodeJSON(text)
	if err == nil {
		return v, nil
	}
	body, ok := fenceBody(text)
	if !ok {
		return nil, err
	}
	return decodeJSON(body)
}

// decodePartial is decodeStrict for truncated output: unterminated strings,
// arrays and objects are closed, and the text is cut back until the
// remainder decodes. ok is false when no prefix of the text is usable.
func decodePartial(text string) (v any, ok bool) {
	if v, err := decodeStrict(text); err == nil {
		return v, true
	}
	candidate := strings.TrimSpace(text)
	if body, found := fenceBody(text); found {
		candidate = body
	}
	return completeJSON(strings.Trim(candidate, "` \t\r\n"))
}

// decodeJSON decodes exactly one value. Numbers are kept as json.Number so
// integers beyond float64 precision survive.
func decodeJSON(text string) (any, error) {
	data := []byte(strings.TrimSpace(text))
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func fenceBody(text string) (string, bool) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.Trim(strings.TrimSpace(m[1]), "`"), true
}

// closers is an immutable stack of pending closing brackets. Cut points keep
// a pointer to the stack as it was, so snapshots cost nothing.
type closers struct {
	c  rune
	up *closers
}

func (s *closers) push(c rune) *closers { return &closers{c: c, up: s} }

func (s *closers) String() string {
	var b strings.Builder
	for n := s; n != nil; n = n.up {
		b.WriteRune(n.c)
	}
	return b.String()
}

// cut is a prefix length at which the text ends between two JSON tokens.
type cut struct {
	at    int
	stack *closers
}

// completeJSON closes whatever brackets and string the text left open. When
// that does not decode, the last token is trimmed a few runes at a time, and
// then the text is cut back to recent token boundaries.
func completeJSON(s string) (any, bool) {
	var (
		chars    []rune
		stack    *closers
		cuts     []cut
		inString bool
		escaped  bool
		runStart = -1
	)
	addCut := func() {
		cuts = append(cuts, cut{at: len(chars), stack: stack})
		if len(cuts) > 2*maxPartialCuts {
			cuts = append(cuts[:0], cuts[len(cuts)-maxPartialCuts:]...)
		}
	}

	for _, c := range s {
		if inString {
			switch {
			case c == '"' && !escaped:
				inString = false
			case c == '\n' && !escaped:
				chars = append(chars, '\\')
				c = 'n'
			case c == '\\':
				escaped = !escaped
			default:
				escaped = false
			}
			chars = append(chars, c)
			if !inString {
				addCut()
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			escaped = false
			runStart = -1
		case '{', '[':
			if c == '{' {
				stack = stack.push('}')
			} else {
				stack = stack.push(']')
			}
			chars = append(chars, c)
			addCut()
			runStart = -1
			continue
		case '}', ']':
			if stack == nil || stack.c != c {
				return nil, false
			}
			stack = stack.up
			chars = append(chars, c)
			addCut()
			runStart = -1
			continue
		case ',':
			addCut()
			runStart = -1
		case ':', ' ', '\t', '\r', '\n':
			runStart = -1
		default:
			if runStart < 0 {
				runStart = len(chars)
			}
		}
		chars = append(chars, c)
	}

	tail := stack.String()
	if inString {
		body := chars
		if escaped {
			body = body[:len(body)-1]
		}
		if v, err := decodeJSON(string(body) + `"` + tail); err == nil {
			return v, true
		}
	} else {
		if v, err := decodeJSON(string(chars) + tail); err == nil {
			return v, true
		}
		if runStart >= 0 {
			for k := 1; k <= maxTrailingTrim && len(chars)-k >= runStart; k++ {
				if v, err := decodeJSON(string(chars[:len(chars)-k]) + tail); err == nil {
					return v, true
				}
			}
		}
	}

	for i, tried := len(cuts)-1, 0; i >= 0 && tried < maxPartialCuts; i, tried = i-1, tried+1 {
		c := cuts[i]
		if v, err := decodeJSON(string(chars[:c.at]) + c.stack.String()); err == nil {
			return v, true
		}
	}
	return nil, false
}
