package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIDescribeSendsDataURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "gpt-4o" {
			t.Errorf("unexpected model %q", payload.Model)
		}
		if len(payload.Messages) != 1 || len(payload.Messages[0].Content) != 2 {
			t.Errorf("unexpected message shape: %+v", payload.Messages)
		} else if url := payload.Messages[0].Content[1].ImageURL.URL; !strings.HasPrefix(url, "data:image/jpeg;base64,") {
			t.Errorf("image url missing data prefix: %q", url)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "a desk with a lamp"},
			}},
		})
	}))
	defer server.Close()

	provider, err := NewOpenAI(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
	})
	if err != nil {
		t.Fatalf("new openai: %v", err)
	}

	got, err := provider.Describe(context.Background(), "aW1hZ2U=")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if got != "a desk with a lamp" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestOpenAIDescribeWrapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider, err := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: server.URL, Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("new openai: %v", err)
	}

	if _, err := provider.Describe(context.Background(), "aW1hZ2U="); !errors.Is(err, ErrDescriptionFailed) {
		t.Fatalf("expected ErrDescriptionFailed, got %v", err)
	}
}

func TestNewOpenAIRequiresCredentials(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := NewOpenAI(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error without model")
	}
}
