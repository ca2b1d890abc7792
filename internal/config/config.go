/*
Package config reads the process configuration from the environment.
Values are resolved once at start-up and never change afterwards.
A local .env file is honoured through godotenv.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultModel       = "gpt-4"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultMaxTokens   = 1000
	DefaultPort        = 8080
	DefaultLLMTimeout  = 60 * time.Second
	DefaultSessionTTL  = 24 * time.Hour
)

// ErrMissingAPIKey is returned when no credential could be found for the
// selected provider.
var ErrMissingAPIKey = errors.New("API key not found")

// Credential identifies which provider a secret belongs to.
type Credential struct {
	Provider string
	APIKey   string
}

// Masked returns the first five characters of the key followed by an ellipsis.
func (c Credential) Masked() string {
	if len(c.APIKey) <= 5 {
		return "..."
	}
	return c.APIKey[:5] + "..."
}

// Config defines everything the plan generator needs to run.
type Config struct {
	Credential

	// Model is the fixed model identifier sent with every completion.
	Model string

	// MaxTokens caps the length of each generated plan.
	MaxTokens int

	// BaseURL overrides the provider endpoint (proxies, local gateways, tests).
	BaseURL string

	// LLMTimeout bounds a single model call.
	LLMTimeout time.Duration

	Port int

	// SessionSecret signs the session cookie. Empty means a random secret
	// is generated per process.
	SessionSecret string

	// SessionTTL is how long an idle session keeps its plan history.
	SessionTTL time.Duration

	LogLevel string
	AppEnv   string
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadEnvFile loads a .env file into the process environment. A missing
// file is not an error; existing variables are never overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadCredential resolves the API key for provider. The key is read from
// the provider's environment variable, or from the file named by the
// matching *_FILE variable (the layout used by mounted secret stores).
func LoadCredential(provider string) (Credential, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	var envName string
	switch provider {
	case ProviderOpenAI:
		envName = "OPENAI_API_KEY"
	case ProviderGemini:
		envName = "GEMINI_API_KEY"
	default:
		return Credential{}, fmt.Errorf("unknown provider %q", provider)
	}

	if key := strings.TrimSpace(os.Getenv(envName)); key != "" {
		return Credential{Provider: provider, APIKey: key}, nil
	}

	if path := os.Getenv(envName + "_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Credential{}, fmt.Errorf("failed to read %s_FILE: %w", envName, err)
		}
		if key := strings.TrimSpace(string(raw)); key != "" {
			return Credential{Provider: provider, APIKey: key}, nil
		}
	}

	return Credential{}, fmt.Errorf("%w: set %s or %s_FILE", ErrMissingAPIKey, envName, envName)
}

// Load builds the full service configuration from the environment.
func Load() (*Config, error) {
	cred, err := LoadCredential(os.Getenv("LLM_PROVIDER"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Credential:    cred,
		Model:         os.Getenv("LLM_MODEL"),
		MaxTokens:     DefaultMaxTokens,
		BaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMTimeout:    DefaultLLMTimeout,
		Port:          DefaultPort,
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    DefaultSessionTTL,
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		if cfg.Provider == ProviderGemini {
			cfg.Model = DefaultGeminiModel
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Attempt to parse the numeric settings; fall back to defaults if unset or invalid.
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid LLM_MAX_TOKENS %q", v)
		}
		cfg.MaxTokens = n
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT %q: %w", v, err)
		}
		cfg.LLMTimeout = d
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}
