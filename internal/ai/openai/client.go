package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spigell/resume-screener/internal/ai"
)

const (
	// ProviderName identifies this backend in logs and configuration.
	ProviderName = "openai"
	defaultModel = "gpt-4o"
)

// Options configures the OpenAI backend.
type Options struct {
	APIKey string
	// BaseURL targets an OpenAI-compatible endpoint. Empty means the public API.
	BaseURL string
	Model   string
}

// Generator implements ai.Generator on top of the chat completions API.
type Generator struct {
	client    openaisdk.Client
	modelName string
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator builds a chat completions client. The SDK's automatic retries
// are disabled: a failed call surfaces immediately.
func NewGenerator(opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{
		client:    openaisdk.NewClient(clientOpts...),
		modelName: model,
	}, nil
}

// Generate requests a JSON object completion with temperature 0.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil {
		return "", errors.New("openai generator is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.modelName
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openaisdk.Float(0),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	return output, nil
}

func (g *Generator) Provider() string {
	return ProviderName
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
