package correction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAIConfig configures any endpoint that speaks the chat completions API.
type OpenAIConfig struct {
	Name         string
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	RequireKey   bool
}

// OpenAICompatible corrects text through POST {endpoint}/v1/chat/completions.
// It serves OpenAI, DeepSeek and LiteLLM.
type OpenAICompatible struct {
	name         string
	client       oai.Client
	model        string
	systemPrompt string
}

// NewOpenAICompatible builds an OpenAI-compatible provider.
func NewOpenAICompatible(cfg OpenAIConfig, httpClient *http.Client) (*OpenAICompatible, error) {
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	endpoint := trimEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint must not be empty", name)
	}
	if cfg.RequireKey && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: api key must not be empty", name)
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(endpoint + "/v1/"),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	if httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(httpClient))
	}

	return &OpenAICompatible{
		name:         name,
		client:       oai.NewClient(reqOpts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

// Name implements Provider.
func (p *OpenAICompatible) Name() string { return p.name }

// Correct implements Provider.
func (p *OpenAICompatible) Correct(ctx context.Context, text string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(p.systemPrompt),
			oai.UserMessage(text),
		},
		Temperature: param.NewOpt(Temperature),
		MaxTokens:   param.NewOpt(int64(MaxTokens)),
	})
	if err != nil {
		out := &Error{Provider: p.name, Err: err}
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			out.StatusCode = apiErr.StatusCode
			out.Body = apiErr.RawJSON()
		}
		return "", out
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: p.name, Err: errors.New("chat completion: empty choices in response")}
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &Error{Provider: p.name, Err: fmt.Errorf("chat completion: %w", ErrNoText)}
	}
	return content, nil
}
