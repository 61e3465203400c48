package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAITimeout = 60 * time.Second

// OpenAIConfig captures the runtime settings for the OpenAI vision provider.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Prompt         string
	MaxTokens      int
	TimeoutSeconds int
}

// OpenAIProvider describes images through an OpenAI compatible chat
// completion API.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	prompt    string
	maxTokens int
}

// NewOpenAI constructs an OpenAI vision provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai vision: api key required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openai vision: model required")
	}

	timeout := defaultOpenAITimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	prompt := cfg.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = VerbosePrompt
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		prompt:    prompt,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Describe sends the image as a data URL alongside the configured prompt.
func (p *OpenAIProvider) Describe(ctx context.Context, imageBase64 string) (string, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return "", fmt.Errorf("%w: empty image", ErrDescriptionFailed)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: p.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + imageBase64,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDescriptionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrDescriptionFailed)
	}

	description := strings.TrimSpace(resp.Choices[0].Message.Content)
	if description == "" {
		return "", fmt.Errorf("%w: empty content", ErrDescriptionFailed)
	}
	return description, nil
}
