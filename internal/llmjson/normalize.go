// Package llmjson recovers a JSON object from free-form LLM output.
//
// Model responses are frequently wrapped in markdown fences, followed by
// commentary, or written as single-quoted pseudo-JSON. Normalize tries a fixed
// chain of strategies from cheapest to most permissive and returns the first
// object that parses.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Strategy turns raw text into a JSON object, reporting false when it cannot.
type Strategy func(text string) (map[string]any, bool)

// NamedStrategy pairs a Strategy with a stable name for logs and tooling.
type NamedStrategy struct {
	Name  string
	Parse Strategy
}

// Strategies is the ordered chain used by Normalize.
var Strategies = []NamedStrategy{
	{Name: "strict", Parse: parseStrict},
	{Name: "fenced", Parse: parseFenced},
	{Name: "balanced", Parse: parseBalanced},
	{Name: "loose", Parse: parseLoose},
}

var (
	fenceRe         = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Normalize extracts a single JSON object from raw. ok is false when every
// strategy failed; the caller keeps raw for diagnostics.
func Normalize(raw string) (map[string]any, bool) {
	m, _, ok := NormalizeWithStrategy(raw)
	return m, ok
}

// NormalizeWithStrategy is Normalize that also reports which strategy won.
func NormalizeWithStrategy(raw string) (map[string]any, string, bool) {
	for _, s := range Strategies {
		if m, ok := s.Parse(raw); ok {
			return m, s.Name, true
		}
	}
	return nil, "", false
}

func parseStrict(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func parseFenced(text string) (map[string]any, bool) {
	match := fenceRe.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	return parseStrict(match[1])
}

func parseBalanced(text string) (map[string]any, bool) {
	candidate, ok := balancedObject(text)
	if !ok {
		return nil, false
	}
	return parseStrict(candidate)
}

// parseLoose takes everything between the first '{' and the last '}' and
// repairs the most common defects before falling back to the literal parser.
func parseLoose(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := cleanCandidate(text[start : end+1])

	if m, ok := parseStrict(candidate); ok {
		return m, true
	}
	if m, ok := parseLiteral(candidate); ok {
		return m, true
	}
	return parseStrict(strings.ReplaceAll(candidate, "'", `"`))
}

// balancedObject returns the substring from the first '{' to the brace that
// brings nesting depth back to zero. Braces inside double-quoted strings do
// not count.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
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
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func cleanCandidate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 6 && strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[3 : len(s)-3])
		s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	}
	return trailingCommaRe.ReplaceAllString(s, "$1")
}
