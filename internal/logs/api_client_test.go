package logs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"peaceproc/internal/logging"
	"peaceproc/internal/logs"
)

func TestNewStreamClientEmptyBind(t *testing.T) {
	client, err := logs.NewStreamClient("")
	if err != nil {
		t.Fatalf("NewStreamClient error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
}

func TestStreamClientFetchBuildsQueryAndDecodes(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(logs.StreamResponse{
			Events: []logging.LogEvent{{Sequence: 7, Level: "INFO", Message: "hello", SessionID: "s1"}},
			Next:   42,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL)
	if err != nil {
		t.Fatalf("NewStreamClient error: %v", err)
	}
	resp, err := client.Fetch(context.Background(), logs.StreamQuery{
		Since:     3,
		Limit:     50,
		Follow:    true,
		Tail:      true,
		SessionID: "s1",
		Component: "pipeline",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/logs" {
		t.Fatalf("path = %q", gotPath)
	}
	want := map[string]string{"since": "3", "limit": "50", "follow": "1", "tail": "1", "session": "s1", "component": "pipeline"}
	for key, value := range want {
		if gotQuery.Get(key) != value {
			t.Fatalf("query %s = %q, want %q", key, gotQuery.Get(key), value)
		}
	}
	if resp.Next != 42 || len(resp.Events) != 1 || resp.Events[0].Message != "hello" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestStreamClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := logs.NewStreamClient(srv.URL)
	if _, err := client.Fetch(context.Background(), logs.StreamQuery{}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestIsAPIUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	client, _ := logs.NewStreamClient(addr)
	_, err := client.Fetch(context.Background(), logs.StreamQuery{})
	if !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	var nilClient *logs.StreamClient
	if _, err := nilClient.Fetch(context.Background(), logs.StreamQuery{}); !errors.Is(err, logs.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
	if logs.IsAPIUnavailable(nil) {
		t.Fatal("nil error is not unavailable")
	}
}
