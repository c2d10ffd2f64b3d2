package notifications

import (
	"context"
	"log/slog"
	"time"

	"cutout/internal/logging"
	"cutout/internal/workflow"
)

// NameLookup resolves an item id to its display name.
type NameLookup func(id string) (string, bool)

// Observer turns workflow events into notifications. It runs on the workflow
// dispatcher goroutine, so its fields need no locking.
type Observer struct {
	svc    Service
	lookup NameLookup
	logger *slog.Logger

	active    bool
	start     time.Time
	processed int
	failed    int
}

// NewObserver returns an observer publishing through svc. lookup may be nil.
func NewObserver(svc Service, lookup NameLookup, logger *slog.Logger) *Observer {
	if svc == nil {
		svc = noopService{}
	}
	return &Observer{svc: svc, lookup: lookup, logger: logging.NewComponentLogger(logger, "notifications")}
}

// Observe implements workflow.Observer.
func (o *Observer) Observe(e workflow.Event) {
	switch e.Kind {
	case workflow.EventStarted:
		o.active = true
		o.start = e.Time
		o.processed, o.failed = 0, 0
		o.publish(EventQueueStarted, Payload{"count": e.State.Pending})
	case workflow.EventCompleted:
		o.processed++
	case workflow.EventFailed:
		o.failed++
		payload := Payload{"item": e.ItemID, "error": e.Detail}
		if o.lookup != nil {
			if name, ok := o.lookup(e.ItemID); ok {
				payload["name"] = name
			}
		}
		o.publish(EventItemFailed, payload)
	case workflow.EventDrained:
		if !o.active {
			return
		}
		o.active = false
		o.publish(EventQueueCompleted, Payload{
			"processed": o.processed,
			"failed":    o.failed,
			"duration":  e.Time.Sub(o.start),
		})
	}
}

func (o *Observer) publish(event Event, payload Payload) {
	if err := o.svc.Publish(context.Background(), event, payload); err != nil {
		logging.WarnWithContext(o.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "push notification not delivered"),
		)
	}
}
