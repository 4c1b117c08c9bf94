package search

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/stellarlinkco/extract-eval/internal/dataset"
)

var (
	quotedRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	// A list marker is a leading bullet or item number, never the answer
	// itself: a bare numeric line like "1648-10-24" must survive intact.
	listMarkerRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

// Decode turns raw model output into a prediction list using two stages:
// a structured JSON-array parse, then a deterministic token-extraction
// fallback for output that is not valid JSON. Both stages are exposed for
// independent testing.
func Decode(raw string) []string {
	if list, err := DecodeJSONList(raw); err == nil {
		return list
	}
	return ExtractTokens(raw)
}

// DecodeJSONList parses a JSON array of scalars out of raw, tolerating fenced
// code blocks and surrounding prose. Non-string scalars are normalized to
// strings.
func DecodeJSONList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty output")
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
		if strings.HasPrefix(s, "json") {
			s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = strings.TrimSpace(s[:idx])
		}
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < 0 || start >= end {
		return nil, errors.New("missing JSON array")
	}

	var items []any
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, dataset.NormalizeToken(v))
	}
	return out, nil
}

// ExtractTokens recovers a prediction list from unstructured output: quoted
// strings if any are present, otherwise non-empty lines with list markers
// stripped.
func ExtractTokens(raw string) []string {
	if matches := quotedRe.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			out = append(out, unescape(m[1]))
		}
		return out
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = listMarkerRe.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func unescape(s string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &decoded); err != nil {
		return s
	}
	return decoded
}
