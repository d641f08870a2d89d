package openrouter

import (
	"context"
	"errors"
	"testing"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
	client, err := NewClient(Config{APIKey: "k", BaseURL: "https://openrouter.ai/api/v1/", SiteName: "BankerAI"})
	if err != nil || client == nil {
		t.Fatalf("NewClient() = %v, %v", client, err)
	}
}

func TestNewChatModelRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewChatModel(context.Background(), Config{Model: "m"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewChatModel() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewChatModelBuildsWithoutNetwork(t *testing.T) {
	t.Parallel()

	m, err := NewChatModel(context.Background(), Config{APIKey: "k", Model: "x-ai/grok-4.1-fast", BaseURL: "http://127.0.0.1:1"})
	if err != nil || m == nil {
		t.Fatalf("NewChatModel() = %v, %v", m, err)
	}
}
