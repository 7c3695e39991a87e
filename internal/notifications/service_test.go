package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"peaceproc/internal/config"
	"peaceproc/internal/notifications"
)

type captured struct {
	title, tags, priority, body string
}

func newServer(t *testing.T, calls *[]captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*calls = append(*calls, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "run completed",
			event: notifications.EventRunCompleted,
			payload: notifications.Payload{
				"workflow":   "run_pipeline",
				"session_id": "20250101_120000",
				"artifact":   "/out/final_video.mp4",
				"duration":   95 * time.Second,
			},
			expectTitle: "peaceproc - Run Complete",
			expectBody:  []string{"Completed: run_pipeline (20250101_120000)", "File: /out/final_video.mp4", "Took: 1m35s"},
			expectTags:  "peaceproc,run,completed",
		},
		{
			name:        "placeholder run",
			event:       notifications.EventRunCompleted,
			payload:     notifications.Payload{"workflow": "generate_video_only", "placeholder": true},
			expectTitle: "peaceproc - Run Complete",
			expectBody:  []string{"placeholder written instead of video"},
			expectTags:  "peaceproc,run,completed,placeholder",
		},
		{
			name:           "run failed",
			event:          notifications.EventRunFailed,
			payload:        notifications.Payload{"workflow": "run_pipeline", "error": "upstream generation error: image"},
			expectTitle:    "peaceproc - Run Failed",
			expectBody:     []string{"Failed: run_pipeline", "upstream generation error: image"},
			expectTags:     "peaceproc,run,failed",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "peaceproc - Test",
			expectBody:     []string{"Notification system test"},
			expectTags:     "peaceproc,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls []captured
			server := newServer(t, &calls)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL

			if err := notifications.NewService(&cfg).Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if len(calls) != 1 {
				t.Fatalf("expected one request, got %d", len(calls))
			}
			got := calls[0]
			if got.title != tc.expectTitle || got.tags != tc.expectTags || got.priority != tc.expectPriority {
				t.Fatalf("unexpected headers %+v", got)
			}
			for _, fragment := range tc.expectBody {
				if !strings.Contains(got.body, fragment) {
					t.Fatalf("body %q missing %q", got.body, fragment)
				}
			}
		})
	}
}

func TestDisabledEventsAreDropped(t *testing.T) {
	var calls []captured
	server := newServer(t, &calls)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunCompleted = false

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no requests, got %d", len(calls))
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
