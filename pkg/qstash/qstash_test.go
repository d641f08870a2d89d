package qstash

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSaveReportPublishes(t *testing.T) {
	t.Parallel()

	var (
		gotPath   string
		gotAuth   string
		gotDedup  string
		gotReport map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReport)
		_, _ = w.Write([]byte(`{"messageId":"msg_1"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Token: "tok", Destination: "https://hooks.example.com/analysis"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if err := client.SaveReport(context.Background(), "req-1", map[string]any{"status": "success"}); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/analysis" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" || gotDedup != "req-1" {
		t.Fatalf("auth = %q dedup = %q", gotAuth, gotDedup)
	}
	if gotReport["status"] != "success" {
		t.Fatalf("report = %v", gotReport)
	}
}

func TestPublishHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL, Token: "bad", Destination: "https://hooks.example.com/x"})
	if _, err := client.Publish(context.Background(), "", []byte(`{}`)); err == nil {
		t.Fatalf("Publish() error = nil, want error")
	}
}

func TestNewClientValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://qstash.upstash.io"}); !errors.Is(err, ErrMissingDestination) {
		t.Fatalf("error = %v, want ErrMissingDestination", err)
	}
	if _, err := NewClient(Config{URL: "", Destination: "https://x.test"}); err == nil {
		t.Fatalf("empty url should fail")
	}
	if (Config{Token: "t"}).Enabled() {
		t.Fatalf("Enabled() without destination = true")
	}
}
