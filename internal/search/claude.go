package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	claudeDefaultModel = "claude-sonnet-4-5-20250929"
	claudeRetryMax     = 3
	claudeRetryBase    = time.Second
	claudeMaxTokens    = 2048
)

// ClaudeSearcher implements Searcher over the Anthropic messages API.
type ClaudeSearcher struct {
	apiKey     string
	authToken  string
	baseURL    string
	model      string
	retryMax   int
	retryBase  time.Duration
	httpClient *http.Client
}

// ClaudeOption configures a ClaudeSearcher.
type ClaudeOption func(*ClaudeSearcher)

// WithClaudeBaseURL overrides the API base URL.
func WithClaudeBaseURL(baseURL string) ClaudeOption {
	return func(s *ClaudeSearcher) {
		if v := strings.TrimSpace(baseURL); v != "" {
			s.baseURL = strings.TrimRight(v, "/")
		}
	}
}

// WithClaudeModel overrides the default model name.
func WithClaudeModel(model string) ClaudeOption {
	return func(s *ClaudeSearcher) {
		if v := strings.TrimSpace(model); v != "" {
			s.model = v
		}
	}
}

// WithClaudeTimeout bounds each HTTP request.
func WithClaudeTimeout(timeout time.Duration) ClaudeOption {
	return func(s *ClaudeSearcher) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// NewClaudeSearcher builds a searcher; an empty apiKey falls back to
// ANTHROPIC_API_KEY / ANTHROPIC_AUTH_TOKEN.
func NewClaudeSearcher(apiKey string, opts ...ClaudeOption) *ClaudeSearcher {
	s := &ClaudeSearcher{
		apiKey:     strings.TrimSpace(apiKey),
		model:      claudeDefaultModel,
		retryMax:   claudeRetryMax,
		retryBase:  claudeRetryBase,
		httpClient: &http.Client{},
	}
	if s.apiKey == "" {
		if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
			s.apiKey = v
		} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
			s.authToken = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); v != "" {
		s.baseURL = strings.TrimRight(v, "/")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *ClaudeSearcher) Name() string { return "claude" }

// Search sends the extraction prompt and decodes the reply into a prediction
// list. Transient 5xx failures are retried with exponential backoff.
func (s *ClaudeSearcher) Search(ctx context.Context, req *Request) (*Result, error) {
	if s == nil {
		return nil, errors.New("search: claude: nil searcher")
	}
	if ctx == nil {
		return nil, errors.New("search: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("search: claude: nil request")
	}
	if s.apiKey == "" && s.authToken == "" {
		return nil, errors.New("search: claude: missing api key")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: claudeMaxTokens,
		System: []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(buildUserPrompt(req)),
			},
		}},
	}

	sdk := s.newSDKClient()
	start := time.Now()

	var msg *anthropic.Message
	var err error
	for attempt := 0; ; attempt++ {
		msg, err = sdk.Messages.New(ctx, params)
		if err == nil {
			break
		}
		if !claudeShouldRetry(err) || attempt >= s.retryMax {
			return nil, fmt.Errorf("search: claude: %w", err)
		}
		if err := sleepWithContext(ctx, s.retryBase*time.Duration(1<<attempt)); err != nil {
			return nil, err
		}
	}

	raw := claudeText(msg)
	return &Result{
		Predicted: Decode(raw),
		ElapsedMs: time.Since(start).Milliseconds(),
		Raw:       raw,
	}, nil
}

func (s *ClaudeSearcher) newSDKClient() *anthropic.Client {
	opts := make([]option.RequestOption, 0, 4)
	if s.baseURL != "" {
		opts = append(opts, option.WithBaseURL(s.baseURL))
	}
	if s.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(s.httpClient))
	}
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	} else if s.authToken != "" {
		opts = append(opts, option.WithAuthToken(s.authToken))
	}
	opts = append(opts, option.WithMaxRetries(0))

	client := anthropic.NewClient(opts...)
	return &client
}

func claudeText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String()
}

func claudeShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return sdkErr.StatusCode >= 500 && sdkErr.StatusCode <= 599
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
