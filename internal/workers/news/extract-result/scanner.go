package extractresult

import (
	"encoding/json"
	"strings"
)

// outerSlice returns the text from the first '[' to the last ']'. When no ']'
// follows the first '[', the rest of the text is returned so the parser can
// report what is wrong with it.
func outerSlice(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, ']')
	if end < start {
		return s[start:], true
	}
	return s[start : end+1], true
}

// balancedSlice returns the first well-formed array literal. Brackets inside
// string literals are ignored. If no candidate parses, the text from the
// first '[' on is returned.
func balancedSlice(s string) (string, bool) {
	first := strings.IndexByte(s, '[')
	if first < 0 {
		return "", false
	}
	for start := first; start >= 0; {
		if end := matchArray(s, start); end > 0 && json.Valid([]byte(s[start:end+1])) {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return s[first:], true
}

// matchArray returns the index of the ']' closing the '[' at start, or -1.
func matchArray(s string, start int) int {
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
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if c == ']' {
					return i
				}
				return -1
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}
