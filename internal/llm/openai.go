package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time check.
var _ Client = (*OpenAIClient)(nil)

// OpenAIClient implements Client using the official openai-go SDK
// (chat completions).
type OpenAIClient struct {
	Model string
	Opts  []option.RequestOption
}

// NewOpenAIClient builds a client from settings. The API key and model are
// required; BaseURL is optional and supports OpenAI-compatible gateways.
func NewOpenAIClient(cfg Settings) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{Model: cfg.Model, Opts: opts}, nil
}

// Complete sends one chat completion request and returns the first choice.
// Failures come back classified so callers can apply the retry and abort
// policies without string matching.
func (o *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", wrap(KindTransient, errors.New("openai: empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK and transport errors onto the Kind taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrap(KindTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return wrap(KindOther, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return wrap(KindAuth, err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return wrap(KindRateLimit, err)
		case apiErr.StatusCode >= 500:
			return wrap(KindTransient, err)
		default:
			return wrap(KindOther, err)
		}
	}

	// No HTTP response at all: connection refused, reset, DNS failure.
	return wrap(KindTransient, err)
}
