package query

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"mnemosyne/internal/store"
)

type fakeCompleter struct {
	lastRequest openai.ChatCompletionRequest
	response    string
	err         error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastRequest = request
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.response},
		}},
	}, nil
}

func TestEntriesText(t *testing.T) {
	entries := []store.Entry{
		{Timestamp: "2024-05-01 10:00:00", Description: "a desk"},
		{Timestamp: "2024-05-01 11:00:00", Description: "a chair"},
	}
	want := "2024-05-01 10:00:00: a desk\n2024-05-01 11:00:00: a chair"
	if got := EntriesText(entries); got != want {
		t.Fatalf("EntriesText = %q, want %q", got, want)
	}
	if got := EntriesText(nil); got != "" {
		t.Fatalf("EntriesText(nil) = %q, want empty", got)
	}
}

func TestAnswerSendsThreeTurns(t *testing.T) {
	fake := &fakeCompleter{response: "The desk was observed at 10:00."}
	engine := &Engine{client: fake, model: "gpt-4o"}

	entries := []store.Entry{{Timestamp: "2024-05-01 10:00:00", Description: "a desk"}}
	answer, err := engine.Answer(context.Background(), "When was the desk seen?", entries)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "The desk was observed at 10:00." {
		t.Fatalf("unexpected answer %q", answer)
	}

	msgs := fake.lastRequest.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("first message role = %q", msgs[0].Role)
	}
	if msgs[1].Content != "When was the desk seen?" {
		t.Fatalf("question not forwarded verbatim: %q", msgs[1].Content)
	}
	if msgs[2].Content != "2024-05-01 10:00:00: a desk" {
		t.Fatalf("entries turn = %q", msgs[2].Content)
	}
}

func TestAnswerWithNoEntriesStillCallsModel(t *testing.T) {
	fake := &fakeCompleter{response: "No observations in that range."}
	engine := &Engine{client: fake, model: "gpt-4o"}

	if _, err := engine.Answer(context.Background(), "What happened?", nil); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if fake.lastRequest.Messages[2].Content != "" {
		t.Fatalf("expected empty entries turn, got %q", fake.lastRequest.Messages[2].Content)
	}
}

func TestAnswerWrapsTransportErrors(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	engine := &Engine{client: fake, model: "gpt-4o"}

	if _, err := engine.Answer(context.Background(), "Anything?", nil); !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	engine := &Engine{client: &fakeCompleter{}, model: "gpt-4o"}
	if _, err := engine.Answer(context.Background(), "   ", nil); !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error without model")
	}
}
