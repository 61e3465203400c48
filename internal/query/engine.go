package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mnemosyne/internal/store"
)

// ErrQueryFailed indicates the chat completion call could not produce an
// answer.
var ErrQueryFailed = errors.New("query failed")

// systemPrompt instructs the model how to treat the supplied entries.
const systemPrompt = "You are provided a set of timestamps followed by descriptions of what was observed at that time. Please infer the answer to the question based on the descriptions provided."

const defaultChatTimeout = 60 * time.Second

// Config captures the runtime settings for the query engine.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// chatCompleter is the slice of the OpenAI client the engine uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Engine answers questions over a set of timestamped entries.
type Engine struct {
	client chatCompleter
	model  string
}

// New constructs a query engine.
func New(cfg Config) (*Engine, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("query engine: api key required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("query engine: model required")
	}

	timeout := defaultChatTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Engine{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// EntriesText renders entries as "<timestamp>: <description>" lines joined by
// newlines, in the order given. An empty slice renders as the empty string.
func EntriesText(entries []store.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(entry.Timestamp)
		b.WriteString(": ")
		b.WriteString(entry.Description)
	}
	return b.String()
}

// Answer sends the question and the rendered entries to the model and returns
// its response verbatim. The chat carries three turns, the system instruction,
// the question, and the entries text. It is issued even when no entries match.
func (e *Engine) Answer(ctx context.Context, question string, entries []store.Entry) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question required", ErrQueryFailed)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
			{Role: openai.ChatMessageRoleUser, Content: EntriesText(entries)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrQueryFailed)
	}
	return resp.Choices[0].Message.Content, nil
}
