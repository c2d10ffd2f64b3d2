package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/services"
	"cutout/internal/transform"
)

func (m *Manager) run() {
	defer m.wg.Done()
	started := m.now()
	processed, failed := 0, 0
	for {
		m.mu.Lock()
		if m.ctx.Err() != nil {
			m.running = false
			m.mu.Unlock()
			m.logger.Info("processing loop stopped", logging.String(logging.FieldEventType, "queue_stopped"))
			return
		}
		item, ok := m.store.NextPending()
		if !ok {
			m.running = false
			m.emitLocked(EventDrained, "", "")
			m.mu.Unlock()
			m.logger.Info("queue drained",
				logging.Int("processed", processed),
				logging.Int("failed", failed),
				logging.Duration("duration", m.now().Sub(started)),
				logging.String(logging.FieldEventType, "queue_drained"),
			)
			return
		}
		if !m.store.MarkProcessing(item.ID) {
			m.mu.Unlock()
			continue
		}
		item.Status = queue.StatusProcessing
		copied := item
		m.lastItem = &copied
		m.emitLocked(EventStatusChanged, item.ID, string(queue.StatusProcessing))
		m.mu.Unlock()

		switch m.processItem(item) {
		case outcomeDone:
			processed++
		case outcomeFailed:
			failed++
		}
	}
}

type outcome int

const (
	outcomeDiscarded outcome = iota
	outcomeDone
	outcomeFailed
)

func (m *Manager) processItem(item queue.Item) outcome {
	ctx := services.WithItemID(m.ctx, item.ID)
	ctx = services.WithStage(ctx, "transform")
	logger := logging.WithContext(ctx, m.logger)

	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if m.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
	}
	start := m.now()
	logger.Info("transform started", logging.String("name", item.Name), logging.String(logging.FieldEventType, "item_processing"))
	out, err := m.invoke(callCtx, item)
	cancel()
	elapsed := m.now().Sub(start)

	if err != nil && m.ctx.Err() != nil {
		logger.Info("transform abandoned during shutdown", logging.String(logging.FieldEventType, "item_abandoned"))
		return outcomeDiscarded
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		detail := failureDetail(err, m.timeout)
		if !m.store.MarkError(item.ID, detail) {
			m.settleLastItemLocked(item.ID, "", "")
			logger.Debug("discarding failure for removed item", logging.Error(err))
			return outcomeDiscarded
		}
		m.lastErr = err
		m.settleLastItemLocked(item.ID, queue.StatusError, detail)
		m.emitLocked(EventFailed, item.ID, detail)
		details := services.Details(err)
		logging.ErrorWithContext(logger, "transform failed", "item_failed",
			logging.String("name", item.Name),
			logging.String("error_message", detail),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
			logging.String(logging.FieldErrorHint, failureHint(details.Kind)),
			logging.Duration("duration", elapsed),
			logging.Error(err),
		)
		return outcomeFailed
	}

	result := queue.Result{
		Mask:        out.Mask,
		Cutout:      out.Cutout,
		Width:       out.Width,
		Height:      out.Height,
		CompletedAt: m.now().UTC(),
	}
	if !m.store.MarkDone(item.ID, result) {
		m.settleLastItemLocked(item.ID, "", "")
		logger.Debug("discarding result for removed item")
		return outcomeDiscarded
	}
	m.settleLastItemLocked(item.ID, queue.StatusDone, "")
	m.emitLocked(EventCompleted, item.ID, "")
	logger.Info("transform completed",
		logging.String("name", item.Name),
		logging.Int("width", out.Width),
		logging.Int("height", out.Height),
		logging.Duration("duration", elapsed),
		logging.String(logging.FieldEventType, "item_completed"),
	)
	return outcomeDone
}

// settleLastItemLocked records how the last processed item ended. An empty
// status means the item was removed mid-flight and is no longer reported.
func (m *Manager) settleLastItemLocked(id string, status queue.Status, detail string) {
	if m.lastItem == nil || m.lastItem.ID != id {
		return
	}
	if status == "" {
		m.lastItem = nil
		return
	}
	settled := *m.lastItem
	settled.Status = status
	settled.ErrorDetail = detail
	m.lastItem = &settled
}

// invoke calls the transformer, converting panics and empty outputs into item failures.
func (m *Manager) invoke(ctx context.Context, item queue.Item) (out transform.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = transform.Output{}
			err = transform.Errorf("transform", nil, "engine panicked: %v", r)
		}
	}()
	if m.transformer == nil {
		return transform.Output{}, transform.Errorf("transform", nil, "no transform engine configured")
	}
	out, err = m.transformer.Transform(ctx, item.Source)
	if err != nil {
		return transform.Output{}, transform.AsError("transform", err)
	}
	if out.Mask == nil || out.Cutout == nil {
		return transform.Output{}, transform.Errorf("transform", nil, "engine returned no mask")
	}
	return out, nil
}

func failureDetail(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
		return fmt.Sprintf("transform timed out after %s", timeout)
	}
	var te *transform.Error
	if errors.As(err, &te) {
		return te.Detail()
	}
	return err.Error()
}

func failureHint(kind services.ErrorKind) string {
	switch kind {
	case services.KindTimeout:
		return "raise queue.transform_timeout or check the transform endpoint"
	case services.KindConfiguration:
		return "check the [transform] section of config.toml"
	default:
		return "check the source image; remove the item and resubmit"
	}
}
