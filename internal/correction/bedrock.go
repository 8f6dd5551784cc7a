package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockConfig configures the Converse call and credential resolution.
type BedrockConfig struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Model           string
	SystemPrompt    string
	Timeout         time.Duration
}

// Bedrock corrects text with the Bedrock Converse API.
type Bedrock struct {
	api          ConverseAPI
	model        string
	systemPrompt string
	timeout      time.Duration
}

// NewBedrock builds a Bedrock provider. When api is nil a runtime client is
// created with credentials resolved as explicit keys, then the named
// profile, then the default chain.
func NewBedrock(ctx context.Context, cfg BedrockConfig, api ConverseAPI) (*Bedrock, error) {
	if api == nil {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		api = bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			o.RetryMaxAttempts = 1
		})
	}
	return &Bedrock{api: api, model: cfg.Model, systemPrompt: cfg.SystemPrompt, timeout: cfg.Timeout}, nil
}

func loadAWSConfig(ctx context.Context, cfg BedrockConfig) (aws.Config, error) {
	loadOpts := make([]func(*awsconfig.LoadOptions) error, 0, 3)
	if region := strings.TrimSpace(cfg.Region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	case strings.TrimSpace(cfg.Profile) != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(strings.TrimSpace(cfg.Profile)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return awsCfg, nil
}

// Name implements Provider.
func (b *Bedrock) Name() string { return "bedrock" }

// Correct implements Provider.
func (b *Bedrock) Correct(ctx context.Context, text string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: b.systemPrompt},
		},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(Temperature),
			MaxTokens:   aws.Int32(MaxTokens),
		},
	})
	if err != nil {
		wrapped := &Error{Provider: b.Name(), Err: err}
		var status interface{ HTTPStatusCode() int }
		if errors.As(err, &status) {
			wrapped.StatusCode = status.HTTPStatusCode()
		}
		return "", wrapped
	}

	if msg, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if t, ok := block.(*types.ContentBlockMemberText); ok {
				return t.Value, nil
			}
		}
	}
	return "", &Error{Provider: b.Name(), Err: fmt.Errorf("converse: %w", ErrNoText)}
}
