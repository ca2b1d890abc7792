package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient handles OpenAI API interactions.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates a client for the OpenAI chat completion API.
func NewOpenAI(opts Options) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

// ListModels lists the models visible to the API key.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Complete generates text for prompt with the configured model and token cap.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	log.Ctx(ctx).Debug().Str("model", c.model).Int("max_tokens", c.maxTokens).Msg("Calling chat completion")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens: c.maxTokens,
		},
	)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", newError(KindMalformed, errors.New("no choices in completion response"))
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", newError(KindMalformed, errors.New("empty completion text"))
	}
	return text, nil
}

// classifyOpenAIError maps the client library's errors onto Kinds.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:       kindForStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
			Err:        apiErr,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Kind:       kindForStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(KindMalformed, err)
	}

	if isNetworkError(err) {
		return newError(KindNetwork, err)
	}

	return newError(KindProvider, err)
}
