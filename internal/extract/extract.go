// Package extract locates and normalizes the JSON object a summarization
// engine is asked to produce. Engines wrap their JSON in prose, code fences,
// or trailing commentary more often than not, so the extractor only finds a
// candidate span; decoding stays with encoding/json.
package extract

import "unicode"

// FirstObject scans text for the first balanced top-level JSON object and
// returns it together with a flag reporting whether any non-whitespace
// characters exist outside the matched span. ok is false when no balanced
// object is found.
//
// The scan is a single linear pass tracking brace depth. Braces inside string
// literals are non-structural, and backslash escapes inside strings are
// honored so an escaped quote does not end the string.
func FirstObject(text string) (obj string, extraneous bool, ok bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				end := i + 1
				return text[start:end], hasExtraneous(text, start, end), true
			}
		}
	}

	return "", false, false
}

func hasExtraneous(text string, start, end int) bool {
	for _, r := range text[:start] {
		if !unicode.IsSpace(r) {
			return true
		}
	}
	for _, r := range text[end:] {
		if !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
