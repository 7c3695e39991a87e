package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"peaceproc/internal/config"
)

const userAgent = "peaceproc/0.1.0"

// Event names a notification type.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventRunFailed    Event = "run_failed"
	EventTest         Event = "test"
)

// Payload carries event fields. Recognized keys: workflow, session_id,
// artifact, placeholder (bool), error, duration (time.Duration).
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// Events disabled in config are dropped.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventRunCompleted: cfg.Notifications.RunCompleted,
			EventRunFailed:    cfg.Notifications.RunFailed,
			EventTest:         true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	workflow := label(payload.str("workflow"), "pipeline")
	session := payload.str("session_id")
	subject := workflow
	if session != "" {
		subject = fmt.Sprintf("%s (%s)", workflow, session)
	}

	switch event {
	case EventRunCompleted:
		body := fmt.Sprintf("✅ Completed: %s", subject)
		if artifact := payload.str("artifact"); artifact != "" {
			body += "\nFile: " + artifact
		}
		if d, ok := payload["duration"].(time.Duration); ok && d > 0 {
			body += "\nTook: " + d.Round(time.Second).String()
		}
		tags := []string{"peaceproc", "run", "completed"}
		if placeholder, _ := payload["placeholder"].(bool); placeholder {
			body += "\nffmpeg unavailable: placeholder written instead of video"
			tags = append(tags, "placeholder")
		}
		return message{title: "peaceproc - Run Complete", body: body, tags: tags}, true
	case EventRunFailed:
		reason := label(payload.str("error"), "unknown")
		return message{
			title:    "peaceproc - Run Failed",
			body:     fmt.Sprintf("❌ Failed: %s\n%s", subject, reason),
			tags:     []string{"peaceproc", "run", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "peaceproc - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"peaceproc", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return ""
	}
}

func label(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
