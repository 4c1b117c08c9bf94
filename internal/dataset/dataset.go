// Package dataset loads extraction test cases: a named corpus, a
// natural-language query, and the ordered ground-truth answer list.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Item is one test case. Truth is an ordered sequence where duplicates are
// semantically significant; it is never deduplicated.
type Item struct {
	Name    string   `json:"name"`
	Content Content  `json:"content"`
	Query   string   `json:"query"`
	Truth   []string `json:"truth"`
}

// Content is the corpus for one item: either a single string or a sequence of
// parts, normalized to one string at the boundary via Corpus.
type Content struct {
	parts    []string
	multiple bool
}

// NewContent wraps a single corpus string.
func NewContent(s string) Content {
	return Content{parts: []string{s}}
}

// NewMultiContent wraps a multi-part corpus.
func NewMultiContent(parts []string) Content {
	return Content{parts: append([]string(nil), parts...), multiple: true}
}

// Corpus joins multi-part content with newlines into the single string the
// search capability consumes.
func (c Content) Corpus() string {
	return strings.Join(c.parts, "\n")
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (c *Content) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*c = NewContent(single)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of strings")
	}
	*c = NewMultiContent(parts)
	return nil
}

// MarshalJSON writes back the original shape.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.multiple {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.Corpus())
}

type wireItem struct {
	Name    string  `json:"name"`
	Content Content `json:"content"`
	Query   string  `json:"query"`
	Truth   []any   `json:"truth"`
}

// Parse decodes and validates a JSON dataset. Truth tokens are normalized to
// strings here, once, and never touched again.
func Parse(b []byte) ([]Item, error) {
	var wire []wireItem
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}

	out := make([]Item, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return nil, fmt.Errorf("dataset: items[%d]: missing name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("dataset: items[%d] (%s): duplicate name", i, name)
		}
		seen[name] = struct{}{}

		if strings.TrimSpace(w.Query) == "" {
			return nil, fmt.Errorf("dataset: items[%d] (%s): missing query", i, name)
		}
		if w.Truth == nil {
			return nil, fmt.Errorf("dataset: items[%d] (%s): missing truth", i, name)
		}

		truth := make([]string, 0, len(w.Truth))
		for _, v := range w.Truth {
			truth = append(truth, NormalizeToken(v))
		}

		out = append(out, Item{
			Name:    name,
			Content: w.Content,
			Query:   w.Query,
			Truth:   truth,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dataset: no items")
	}
	return out, nil
}

// Load reads and parses a dataset file.
func Load(path string) ([]Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	items, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("dataset: %q: %w", path, err)
	}
	return items, nil
}

// NormalizeToken renders any scored token as a string. Predicted tokens pass
// through the same function before scoring.
func NormalizeToken(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
