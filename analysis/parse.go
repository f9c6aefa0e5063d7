package analysis

import (
	"fmt"
	"strings"
)

// ExtractJSONObject returns the first balanced {...} substring of s:
// from the first '{' to its matching '}'. Braces inside string literals
// are ignored. Models tend to wrap their JSON in prose or code fences, so
// this is the only parsing of free text we do before json.Unmarshal.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object in response", ErrParseFailure)
	}

	depth := 0
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: unbalanced JSON object in response", ErrParseFailure)
}
