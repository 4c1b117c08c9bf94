package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/extract-eval/internal/config"
)

// ErrNoCredential means no provider in the config has a usable API key. The
// CLI maps it to a fatal configuration error unless dry-run is requested.
var ErrNoCredential = errors.New("search: no provider credential configured")

// FromConfig builds the default provider's searcher. Providers without an API
// key are skipped; if none remain, ErrNoCredential is returned.
func FromConfig(cfg *config.Config, claudeOpts ...ClaudeOption) (Searcher, error) {
	if cfg == nil {
		return nil, errors.New("search: nil config")
	}

	searchers := make(map[string]Searcher)
	for name, pcfg := range cfg.LLM.Providers {
		if strings.TrimSpace(pcfg.APIKey) == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "":
			continue
		case "claude", "anthropic":
			opts := append([]ClaudeOption{}, claudeOpts...)
			if v := strings.TrimSpace(pcfg.BaseURL); v != "" {
				opts = append(opts, WithClaudeBaseURL(v))
			}
			if v := strings.TrimSpace(pcfg.Model); v != "" {
				opts = append(opts, WithClaudeModel(v))
			}
			searchers["claude"] = NewClaudeSearcher(pcfg.APIKey, opts...)
		case "openai":
			searchers["openai"] = NewOpenAISearcher(pcfg.APIKey, pcfg.BaseURL, pcfg.Model)
		default:
			return nil, fmt.Errorf("search: unknown provider %q", name)
		}
	}
	if len(searchers) == 0 {
		return nil, ErrNoCredential
	}

	name := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if name == "anthropic" {
		name = "claude"
	}
	if s, ok := searchers[name]; ok {
		return s, nil
	}
	if len(searchers) == 1 {
		for _, s := range searchers {
			return s, nil
		}
	}

	available := make([]string, 0, len(searchers))
	for k := range searchers {
		available = append(available, k)
	}
	sort.Strings(available)
	return nil, fmt.Errorf("search: default provider %q not configured (available: %s)",
		cfg.LLM.DefaultProvider, strings.Join(available, ", "))
}
