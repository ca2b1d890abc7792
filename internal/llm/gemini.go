package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiAPIKeyHeader = "x-goog-api-key"
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents         []GeminiContent   `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiModelList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	client    *resty.Client
	model     string
	maxTokens int
}

// NewGemini creates a client for the Gemini API.
func NewGemini(opts Options) *GeminiClient {
	baseURL := geminiBaseURL
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader(geminiAPIKeyHeader, opts.APIKey).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &GeminiClient{
		client:    client,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

// ListModels lists the models visible to the API key, without the
// "models/" prefix.
func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/models")
	if err != nil {
		return nil, newError(KindNetwork, fmt.Errorf("request failed: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, geminiStatusError(resp)
	}

	var list geminiModelList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, newError(KindMalformed, fmt.Errorf("failed to decode model list: %w", err))
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids, nil
}

// Complete sends prompt as one user turn and returns the first candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload := GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: &GenerationConfig{
			MaxOutputTokens: c.maxTokens,
		},
	}

	log.Ctx(ctx).Debug().Str("model", c.model).Int("max_tokens", c.maxTokens).Msg("Calling Gemini API")

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/models/" + c.model + ":generateContent")
	if err != nil {
		return "", newError(KindNetwork, fmt.Errorf("request failed: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return "", geminiStatusError(resp)
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(resp.Body(), &geminiResp); err != nil {
		return "", newError(KindMalformed, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		var text strings.Builder
		for _, part := range geminiResp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
		if strings.TrimSpace(text.String()) != "" {
			return text.String(), nil
		}
	}

	return "", newError(KindMalformed, errors.New("no content found in Gemini response"))
}

// geminiStatusError turns a non-200 response into an *Error. Gemini reports
// a rejected key as 400 INVALID_ARGUMENT, so the message is inspected too.
func geminiStatusError(resp *resty.Response) *Error {
	status := resp.StatusCode()
	kind := kindForStatus(status)

	msg := strings.TrimSpace(string(resp.Body()))
	var body geminiErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
		msg = body.Error.Message
		if status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "api key") {
			kind = KindCredential
		}
	}

	return &Error{
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf("API returned %s: %s", resp.Status(), msg),
	}
}
