package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTimeout   = 60 * time.Second
	geminiRetryAttempts    = 3
	geminiRetryBaseDelay   = 1 * time.Second
	geminiRetryMaxDelay    = 8 * time.Second
	geminiImageContentType = "image/jpeg"
)

// GeminiConfig captures the runtime settings for the Gemini vision provider.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Prompt         string
	TimeoutSeconds int
}

// GeminiProvider describes images through the Gemini generateContent REST API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// GeminiOption customizes the provider.
type GeminiOption func(*GeminiProvider)

// WithGeminiHTTPClient overrides the default HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(p *GeminiProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithGeminiRetry overrides retry behavior (useful for tests).
func WithGeminiRetry(attempts int, baseDelay, maxDelay time.Duration) GeminiOption {
	return func(p *GeminiProvider) {
		p.retryMaxAttempts = attempts
		p.retryBaseDelay = baseDelay
		p.retryMaxDelay = maxDelay
	}
}

// WithGeminiSleeper overrides how retry sleeps are performed.
func WithGeminiSleeper(sleeper func(time.Duration)) GeminiOption {
	return func(p *GeminiProvider) {
		p.sleeper = sleeper
	}
}

// NewGemini constructs a Gemini vision provider.
func NewGemini(cfg GeminiConfig, opts ...GeminiOption) (*GeminiProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini vision: api key required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("gemini vision: model required")
	}

	timeout := defaultGeminiTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	provider := &GeminiProvider{
		cfg: GeminiConfig{
			APIKey:         apiKey,
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          model,
			Prompt:         cfg.Prompt,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: geminiRetryAttempts,
		retryBaseDelay:   geminiRetryBaseDelay,
		retryMaxDelay:    geminiRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(provider)
	}
	if provider.cfg.BaseURL == "" {
		provider.cfg.BaseURL = defaultGeminiBaseURL
	}
	if strings.TrimSpace(provider.cfg.Prompt) == "" {
		provider.cfg.Prompt = VerbosePrompt
	}
	return provider, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inline_data,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Describe sends the image inline with the configured prompt and returns the
// first candidate's text.
func (p *GeminiProvider) Describe(ctx context.Context, imageBase64 string) (string, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return "", fmt.Errorf("%w: empty image", ErrDescriptionFailed)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: p.cfg.Prompt},
				{InlineData: &geminiBlobPart{MimeType: geminiImageContentType, Data: imageBase64}},
			},
		}},
	}

	attempts := p.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		description, err := p.sendOnce(ctx, payload)
		if err == nil {
			return description, nil
		}
		lastErr = err

		if attempt == attempts || !retryableGeminiError(err) || ctx.Err() != nil {
			break
		}
		if sleepErr := p.sleep(ctx, p.backoffDelay(attempt)); sleepErr != nil {
			return "", fmt.Errorf("%w: %v", ErrDescriptionFailed, sleepErr)
		}
	}
	return "", fmt.Errorf("%w: %v", ErrDescriptionFailed, lastErr)
}

func (p *GeminiProvider) sendOnce(ctx context.Context, payload geminiRequest) (string, error) {
	endpoint, err := url.JoinPath(p.cfg.BaseURL, "models", p.cfg.Model+":generateContent")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	endpoint += "?key=" + url.QueryEscape(p.cfg.APIKey)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(parsed.Error.Message))
	}

	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", errors.New("empty candidates")
}

func retryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func (p *GeminiProvider) backoffDelay(attempt int) time.Duration {
	delay := p.retryBaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if delay > p.retryMaxDelay/2 {
			return p.retryMaxDelay
		}
		delay *= 2
	}
	if p.retryMaxDelay > 0 && delay > p.retryMaxDelay {
		return p.retryMaxDelay
	}
	return delay
}

func (p *GeminiProvider) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
