package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openaiDefaultModel = "gpt-4o"

// OpenAISearcher implements Searcher over the OpenAI chat completions API.
type OpenAISearcher struct {
	client *openai.Client
	model  string
}

// NewOpenAISearcher builds a searcher for the given credentials.
func NewOpenAISearcher(apiKey string, baseURL string, model string) *OpenAISearcher {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = openaiDefaultModel
	}

	return &OpenAISearcher{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

func (s *OpenAISearcher) Name() string { return "openai" }

func (s *OpenAISearcher) Search(ctx context.Context, req *Request) (*Result, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("search: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("search: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("search: openai: nil request")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.model
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("search: openai: empty choices")
	}

	raw := resp.Choices[0].Message.Content
	return &Result{
		Predicted: Decode(raw),
		ElapsedMs: time.Since(start).Milliseconds(),
		Raw:       raw,
	}, nil
}
