package llmjson

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no json object found in llm output")

// Extract returns the first balanced {...} or [...] span in raw that parses as JSON.
// Models tend to wrap JSON in prose or markdown fences, so a plain Unmarshal is not enough.
func Extract(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' && raw[start] != '[' {
			continue
		}
		end := matchClosing(raw, start)
		if end < 0 {
			continue
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}

// ExtractObject returns the first balanced {...} span only.
func ExtractObject(raw string) (string, error) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchClosing(raw, start); end >= 0 {
			candidate := raw[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

// Unmarshal extracts the first JSON span from raw and decodes it into v.
func Unmarshal(raw string, v interface{}) error {
	span, err := Extract(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(span), v)
}

// matchClosing returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals. Returns -1 if unbalanced.
func matchClosing(s string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
