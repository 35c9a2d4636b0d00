package util

import (
	"regexp"
	"strings"
)

var jsonCodeBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON pulls a JSON object or array out of an LLM response that may
// wrap it in markdown code fences or surround it with prose. Truncated
// arrays are closed so a best-effort parse can still succeed.
func ExtractJSON(s string) string {
	matches := jsonCodeBlockRegex.FindStringSubmatch(s)
	if len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	} else {
		s = strings.TrimSpace(s)
	}

	// Objects first: newspaper responses are a single JSON object.
	objectStart := strings.Index(s, "{")
	arrayStart := strings.Index(s, "[")
	if objectStart != -1 && (arrayStart == -1 || objectStart < arrayStart) {
		if end := findMatchingBracket(s, objectStart, '{', '}'); end != -1 {
			return s[objectStart : end+1]
		}
	}

	if arrayStart != -1 {
		if end := findMatchingBracket(s, arrayStart, '[', ']'); end != -1 {
			return s[arrayStart : end+1]
		}
		// Truncated array: close it after the last complete element.
		if lastQuote := strings.LastIndex(s, "\""); lastQuote > arrayStart {
			trimmed := strings.TrimRight(s[arrayStart:], " \n\t,")
			return trimmed + "]"
		}
	}

	return s
}

// findMatchingBracket finds the closing bracket matching the opener at
// startPos, skipping brackets inside string literals. Returns -1 when the
// input ends before the bracket closes.
func findMatchingBracket(s string, startPos int, openChar, closeChar rune) int {
	count := 0
	inString := false
	escaped := false

	for i := startPos; i < len(s); i++ {
		ch := rune(s[i])

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if ch == openChar {
				count++
			} else if ch == closeChar {
				count--
				if count == 0 {
					return i
				}
			}
		}
	}

	return -1
}

// SanitizeJSON fixes the common breakages in LLM-emitted JSON: literal
// newlines inside string values and trailing commas before a closer.
func SanitizeJSON(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if escaped {
			result.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			result.WriteByte(ch)
			escaped = true
			continue
		}
		if ch == '"' {
			result.WriteByte(ch)
			inString = !inString
			continue
		}

		if inString && (ch == '\n' || ch == '\r') {
			result.WriteString("\\n")
			if ch == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop trailing comma
			}
		}

		result.WriteByte(ch)
	}

	return result.String()
}
