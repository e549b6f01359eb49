package review

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON means the model output contained no parseable JSON object.
var ErrNoJSON = errors.New("no JSON object found in model output")

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ExtractJSON isolates the JSON object in raw model output. It accepts a bare
// object, an object inside a Markdown code fence, or the first balanced
// object embedded in prose.
func ExtractJSON(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrNoJSON
	}
	if isObject(s) {
		return []byte(s), nil
	}
	for _, m := range fencePattern.FindAllStringSubmatch(s, -1) {
		if candidate := strings.TrimSpace(m[1]); isObject(candidate) {
			return []byte(candidate), nil
		}
	}
	for offset := 0; offset < len(s); {
		start := strings.IndexByte(s[offset:], '{')
		if start < 0 {
			break
		}
		start += offset
		if end := matchingBrace(s, start); end > start {
			if candidate := s[start : end+1]; json.Valid([]byte(candidate)) {
				return []byte(candidate), nil
			}
		}
		offset = start + 1
	}
	return nil, ErrNoJSON
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// matchingBrace returns the index of the brace closing the object opened at
// start, skipping braces inside string literals, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
