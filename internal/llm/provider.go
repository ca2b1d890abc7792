/*
Package llm talks to the hosted chat-completion service that writes the
workout plans. Every call is a single best-effort request: there are no
retries, and failures come back as *Error values tagged with a Kind.
*/
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/fitplan/fitplan/internal/config"
)

// Provider is the boundary to the external model API.
type Provider interface {
	// ListModels returns the ids of the models the credential can use.
	ListModels(ctx context.Context) ([]string, error)

	// Complete sends prompt as a single user message and returns the
	// generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Provider.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Timeout   time.Duration
}

// New builds the provider selected in cfg.
func New(cfg *config.Config) (Provider, error) {
	opts := Options{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.LLMTimeout,
	}
	return NewForProvider(cfg.Provider, opts)
}

// NewForProvider builds a provider by name.
func NewForProvider(name string, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, newError(KindCredential, config.ErrMissingAPIKey)
	}
	switch name {
	case config.ProviderOpenAI, "":
		return NewOpenAI(opts), nil
	case config.ProviderGemini:
		return NewGemini(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// Kind classifies why a call to the provider failed.
type Kind int

const (
	// KindProvider covers errors reported by the API itself (quota, bad
	// request, server errors).
	KindProvider Kind = iota
	// KindCredential means the API key is missing or was rejected.
	KindCredential
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork
	// KindMalformed means a response arrived but held no usable text.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed_response"
	default:
		return "provider"
	}
}

// Error is the failure result of a provider call.
type Error struct {
	Kind Kind

	// StatusCode is the HTTP status returned by the API, when there was one.
	StatusCode int

	Err error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, or KindProvider when err is not an *Error.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindProvider
}

// isNetworkError reports whether err happened before any response arrived.
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func kindForStatus(status int) Kind {
	if status == 401 || status == 403 {
		return KindCredential
	}
	return KindProvider
}
