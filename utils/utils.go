package utils

import (
	"fmt"
	"strings"
)

// Truncate cuts s to at most n runes, appending an ellipsis when trimmed.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// CapWords bounds s to n whitespace-separated tokens. Used as a rough prompt
// length safeguard.
func CapWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// ExtractJSONObject returns the first balanced JSON object in raw. Reasoning
// models wrap their output in a <think> block; anything before the closing
// tag is skipped.
func ExtractJSONObject(raw string) (string, error) {
	if i := strings.Index(raw, "</think>"); i != -1 {
		raw = raw[i+len("</think>"):]
	}
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
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
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in output")
}
