package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cutout/internal/config"
	"cutout/internal/notifications"
	"cutout/internal/workflow"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		mu.Lock()
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventItemFailed, notifications.Payload{"name": "cat.png"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "queue started",
			event:         notifications.EventQueueStarted,
			payload:       notifications.Payload{"count": 3},
			expectTitle:   "cutout - Queue Started",
			expectMessage: "Removing backgrounds from 3 images",
			expectTags:    "cutout,queue,started",
		},
		{
			name:          "queue completed",
			event:         notifications.EventQueueCompleted,
			payload:       notifications.Payload{"processed": 4, "failed": 0, "duration": 65 * time.Second},
			expectTitle:   "cutout - Queue Complete",
			expectMessage: "4 images processed in 1m5s",
			expectTags:    "cutout,queue,completed",
		},
		{
			name:          "queue completed with errors",
			event:         notifications.EventQueueCompleted,
			payload:       notifications.Payload{"processed": 2, "failed": 1, "duration": 3 * time.Second},
			expectTitle:   "cutout - Queue Complete (with errors)",
			expectMessage: "2 succeeded, 1 failed in 3s",
			expectTags:    "cutout,queue,completed,warning",
		},
		{
			name:           "item failed",
			event:          notifications.EventItemFailed,
			payload:        notifications.Payload{"name": "cat.png", "error": errors.New("unsupported or corrupt image")},
			expectTitle:    "cutout - Image Failed",
			expectMessage:  "Could not process cat.png: unsupported or corrupt image",
			expectTags:     "cutout,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "cutout - Test",
			expectMessage:  "Notification system test",
			expectTags:     "cutout,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := captureServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			got := captured()
			if len(got) != 1 {
				t.Fatalf("expected one request, got %d", len(got))
			}
			req := got[0]
			if req.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, req.title)
			}
			if req.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, req.body)
			}
			if req.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, req.tags)
			}
			if req.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, req.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventQueueStarted,
		notifications.EventQueueCompleted,
		notifications.EventItemFailed,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

type recordingService struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingService) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestObserverSummarisesRun(t *testing.T) {
	svc := &recordingService{}
	names := map[string]string{"img_2": "dog.png"}
	obs := notifications.NewObserver(svc, func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}, nil)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pendingState := workflow.State{Running: true}
	pendingState.Pending = 3
	obs.Observe(workflow.Event{Kind: workflow.EventStarted, State: pendingState, Time: start})
	obs.Observe(workflow.Event{Kind: workflow.EventStatusChanged, ItemID: "img_1", Time: start})
	obs.Observe(workflow.Event{Kind: workflow.EventCompleted, ItemID: "img_1", Time: start})
	obs.Observe(workflow.Event{Kind: workflow.EventFailed, ItemID: "img_2", Detail: "decode failed", Time: start})
	obs.Observe(workflow.Event{Kind: workflow.EventCompleted, ItemID: "img_3", Time: start})
	obs.Observe(workflow.Event{Kind: workflow.EventDrained, Time: start.Add(42 * time.Second)})

	want := []notifications.Event{
		notifications.EventQueueStarted,
		notifications.EventItemFailed,
		notifications.EventQueueCompleted,
	}
	if len(svc.events) != len(want) {
		t.Fatalf("events = %v, want %v", svc.events, want)
	}
	for i := range want {
		if svc.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", svc.events, want)
		}
	}
	if got := svc.payloads[0]["count"]; got != 3 {
		t.Fatalf("started count = %v", got)
	}
	if got := svc.payloads[1]["name"]; got != "dog.png" {
		t.Fatalf("failed name = %v", got)
	}
	summary := svc.payloads[2]
	if summary["processed"] != 2 || summary["failed"] != 1 || summary["duration"] != 42*time.Second {
		t.Fatalf("unexpected summary %v", summary)
	}
}

func TestObserverIgnoresDrainWithoutStart(t *testing.T) {
	svc := &recordingService{}
	obs := notifications.NewObserver(svc, nil, nil)
	obs.Observe(workflow.Event{Kind: workflow.EventDrained, Time: time.Now()})
	if len(svc.events) != 0 {
		t.Fatalf("expected no notifications, got %v", svc.events)
	}
}
