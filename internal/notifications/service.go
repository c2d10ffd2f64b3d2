package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cutout/internal/config"
)

const userAgent = "cutout/0.1"

// Event names a notification type.
type Event string

const (
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventItemFailed     Event = "item_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are documented per event in format.
type Payload map[string]any

// Service defines the notification surface exposed to workflow observers.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		queue:    cfg.Notifications.Queue,
		errors:   cfg.Notifications.Errors,
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
	queue    bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventQueueStarted, EventQueueCompleted:
		return n.queue
	case EventItemFailed:
		return n.errors
	default:
		return true
	}
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventQueueStarted:
		return message{
			title: "cutout - Queue Started",
			body:  fmt.Sprintf("Removing backgrounds from %d images", payload.intValue("count")),
			tags:  []string{"cutout", "queue", "started"},
		}, true
	case EventQueueCompleted:
		processed := payload.intValue("processed")
		failed := payload.intValue("failed")
		duration := payload.durationValue("duration").Round(time.Second)
		if duration < 0 {
			duration = 0
		}
		if failed == 0 {
			return message{
				title: "cutout - Queue Complete",
				body:  fmt.Sprintf("%d images processed in %s", processed, duration),
				tags:  []string{"cutout", "queue", "completed"},
			}, true
		}
		return message{
			title: "cutout - Queue Complete (with errors)",
			body:  fmt.Sprintf("%d succeeded, %d failed in %s", processed, failed, duration),
			tags:  []string{"cutout", "queue", "completed", "warning"},
		}, true
	case EventItemFailed:
		name := payload.stringValue("name")
		if name == "" {
			name = payload.stringValue("item")
		}
		detail := payload.stringValue("error")
		if detail == "" {
			detail = "unknown error"
		}
		return message{
			title:    "cutout - Image Failed",
			body:     fmt.Sprintf("Could not process %s: %s", name, detail),
			tags:     []string{"cutout", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "cutout - Test",
			body:     "Notification system test",
			tags:     []string{"cutout", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) stringValue(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) intValue(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) durationValue(key string) time.Duration {
	if v, ok := p[key].(time.Duration); ok {
		return v
	}
	return 0
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
