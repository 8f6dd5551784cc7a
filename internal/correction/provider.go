// Package correction refines raw transcripts with a language model.
package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/config"
)

// Every provider shares one sampling policy so results stay comparable.
const (
	Temperature = 0.1
	MaxTokens   = 4096

	defaultTimeout = 30 * time.Second
)

// Provider rewrites one raw transcript. It holds no state across calls.
type Provider interface {
	Name() string
	Correct(ctx context.Context, text string) (string, error)
}

// Error describes a failed correction call.
type Error struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" correction failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if body := strings.TrimSpace(e.Body); body != "" && (e.Err == nil || !strings.Contains(e.Err.Error(), body)) {
		b.WriteString(": ")
		b.WriteString(body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoText is returned when a response carries no usable text.
var ErrNoText = errors.New("response contained no text")

// Noop returns its input unchanged.
type Noop struct{}

// Name implements Provider.
func (Noop) Name() string { return "none" }

// Correct implements Provider.
func (Noop) Correct(_ context.Context, text string) (string, error) { return text, nil }

type options struct {
	httpClient *http.Client
	converse   ConverseAPI
	logger     *slog.Logger
}

// Option customizes provider construction.
type Option func(*options)

// WithHTTPClient overrides the HTTP client used by HTTP providers.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithConverseAPI injects the Bedrock runtime client.
func WithConverseAPI(api ConverseAPI) Option {
	return func(o *options) { o.converse = api }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Default endpoints for the OpenAI-compatible providers.
var defaultEndpoints = map[string]string{
	"openai":   "https://api.openai.com",
	"deepseek": "https://api.deepseek.com",
	"litellm":  "http://localhost:4000",
}

// New selects a provider from settings. A disabled config or provider "none"
// yields Noop.
func New(ctx context.Context, settings config.CorrectionConfig, systemPrompt string, opts ...Option) (Provider, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := time.Duration(settings.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: timeout}
	}

	provider := strings.ToLower(strings.TrimSpace(settings.Provider))
	if !settings.Enable || provider == "" || provider == "none" {
		return Noop{}, nil
	}

	model := strings.TrimSpace(settings.Model)
	if model == "" {
		return nil, fmt.Errorf("correction.model is required for provider %q", provider)
	}

	switch provider {
	case "foundry":
		return NewFoundry(FoundryConfig{
			Endpoint:     settings.Endpoint,
			APIKey:       settings.APIKey,
			Model:        model,
			SystemPrompt: systemPrompt,
			Timeout:      timeout,
		}, o.httpClient)
	case "bedrock":
		return NewBedrock(ctx, BedrockConfig{
			Region:          settings.Region,
			Profile:         settings.Profile,
			AccessKeyID:     settings.AccessKeyID,
			SecretAccessKey: settings.SecretAccessKey,
			SessionToken:    settings.SessionToken,
			Model:           model,
			SystemPrompt:    systemPrompt,
			Timeout:         timeout,
		}, o.converse)
	case "openai", "deepseek", "litellm":
		endpoint := strings.TrimSpace(settings.Endpoint)
		if endpoint == "" {
			endpoint = defaultEndpoints[provider]
		}
		return NewOpenAICompatible(OpenAIConfig{
			Name:         provider,
			Endpoint:     endpoint,
			APIKey:       settings.APIKey,
			Model:        model,
			SystemPrompt: systemPrompt,
			RequireKey:   provider != "litellm",
		}, o.httpClient)
	default:
		return nil, fmt.Errorf("unknown correction provider %q", settings.Provider)
	}
}

func trimEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}
