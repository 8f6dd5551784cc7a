package correction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// FoundryConfig configures an Anthropic messages endpoint hosted behind a
// custom base URL with bearer authentication.
type FoundryConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Foundry corrects text through POST {endpoint}/v1/messages.
type Foundry struct {
	client       anthropic.Client
	model        string
	systemPrompt string
}

// NewFoundry builds a Foundry provider. Endpoint and key are required.
func NewFoundry(cfg FoundryConfig, httpClient *http.Client) (*Foundry, error) {
	endpoint := trimEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("foundry: endpoint must not be empty")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("foundry: api key must not be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := anthropic.NewClient(
		option.WithAuthToken(cfg.APIKey),
		option.WithBaseURL(endpoint+"/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &Foundry{client: client, model: cfg.Model, systemPrompt: cfg.SystemPrompt}, nil
}

// Name implements Provider.
func (f *Foundry) Name() string { return "foundry" }

// Correct implements Provider.
func (f *Foundry) Correct(ctx context.Context, text string) (string, error) {
	msg, err := f.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(f.model),
		MaxTokens:   MaxTokens,
		Temperature: anthropic.Float(Temperature),
		System:      []anthropic.TextBlockParam{{Text: f.systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		out := &Error{Provider: f.Name(), Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			out.StatusCode = apiErr.StatusCode
			out.Body = apiErr.RawJSON()
		}
		return "", out
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &Error{Provider: f.Name(), Err: fmt.Errorf("messages: %w", ErrNoText)}
}
