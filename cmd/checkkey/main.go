// Command checkkey verifies that the configured API key is accepted by the
// model provider by listing the models it can use.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitplan/fitplan/internal/config"
	"github.com/fitplan/fitplan/internal/llm"
)

type options struct {
	envFile  string
	provider string
	baseURL  string
	list     bool
	timeout  time.Duration
}

// errCheckFailed signals a reported failure; the message is already printed.
var errCheckFailed = errors.New("credential check failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "checkkey",
		Short:         "Verify the model provider API key",
		Long:          "checkkey loads the API key from the environment or a .env file and lists the available models to confirm the key works.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(opts.envFile); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "🚨 Error: %v\n", err)
				return errCheckFailed
			}
			if opts.provider == "" {
				opts.provider = os.Getenv("LLM_PROVIDER")
			}
			if opts.baseURL == "" {
				opts.baseURL = os.Getenv("LLM_BASE_URL")
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "path to a .env file to load before checking")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider to check: openai or gemini (default $LLM_PROVIDER or openai)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "override the provider API endpoint (default $LLM_BASE_URL)")
	cmd.Flags().BoolVar(&opts.list, "list", false, "print every available model id")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "time limit for the API call")

	return cmd
}

// run performs the check, writing the user-facing report to out.
func run(ctx context.Context, out io.Writer, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cred, err := config.LoadCredential(opts.provider)
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(out, "🚨 Error: API Key not found. Check your .env file.")
		} else {
			fmt.Fprintf(out, "🚨 Error: %v\n", err)
		}
		return errCheckFailed
	}
	fmt.Fprintf(out, "✅ API Key Loaded: %s (hidden for security)\n", cred.Masked())

	provider, err := llm.NewForProvider(cred.Provider, llm.Options{
		APIKey:  cred.APIKey,
		BaseURL: opts.baseURL,
	})
	if err != nil {
		fmt.Fprintf(out, "🚨 Error: %v\n", err)
		return errCheckFailed
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	models, err := provider.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(out, "🚨 API Error: %v\n", err)
		return errCheckFailed
	}

	fmt.Fprintf(out, "✅ %s API Key is valid and working! (%d models available)\n", providerLabel(cred.Provider), len(models))
	if opts.list {
		for _, id := range models {
			fmt.Fprintf(out, "  - %s\n", id)
		}
	}
	return nil
}

func providerLabel(name string) string {
	if name == config.ProviderGemini {
		return "Gemini"
	}
	return "OpenAI"
}
