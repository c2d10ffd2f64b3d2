package api

import (
	"fmt"
	"strings"
	"time"

	"cutout/internal/export"
	"cutout/internal/queue"
	"cutout/internal/textutil"
	"cutout/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item queue.Item) QueueItem {
	return QueueItem{
		ID:           item.ID,
		Name:         item.Name,
		SourceKind:   item.Source.Kind(),
		SourceURL:    displayURL(item.Source.URL),
		SizeBytes:    item.SizeBytes,
		Status:       string(item.Status),
		StatusLabel:  item.Status.Label(),
		ErrorMessage: item.ErrorDetail,
		SubmittedAt:  formatTime(item.SubmittedAt),
	}
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromResult converts a completed result to its API representation.
func FromResult(result queue.Result) ResultItem {
	return ResultItem{
		ID:          result.ID,
		Name:        result.Name,
		SourceURL:   displayURL(result.Source.URL),
		Width:       result.Width,
		Height:      result.Height,
		SubmittedAt: formatTime(result.SubmittedAt),
		CompletedAt: formatTime(result.CompletedAt),
		CutoutURL:   fmt.Sprintf("/api/results/%s/cutout.png", result.ID),
		MaskURL:     fmt.Sprintf("/api/results/%s/mask.png", result.ID),
	}
}

// FromResults converts completed results in order.
func FromResults(results []queue.Result) []ResultItem {
	out := make([]ResultItem, 0, len(results))
	for _, result := range results {
		out = append(out, FromResult(result))
	}
	return out
}

// FromSnapshot converts derived queue counts.
func FromSnapshot(s queue.Snapshot) QueueCounts {
	return QueueCounts(s)
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:   summary.Running,
		Counts:    FromSnapshot(summary.State.Snapshot),
		LastError: summary.LastError,
	}
	if summary.LastItem != nil {
		last := FromQueueItem(*summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// FromExportRecord converts a ledger record.
func FromExportRecord(rec export.Record) ExportRecord {
	return ExportRecord{
		ID:         rec.ID,
		ItemID:     rec.ItemID,
		Name:       rec.Name,
		Path:       rec.Path,
		Width:      rec.Width,
		Height:     rec.Height,
		ExportedAt: formatTime(rec.ExportedAt),
	}
}

// FromExportRecords converts ledger records in order.
func FromExportRecords(records []export.Record) []ExportRecord {
	out := make([]ExportRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, FromExportRecord(rec))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// displayURL keeps data URIs out of listings; they can be megabytes long.
func displayURL(raw string) string {
	const limit = 64
	if strings.HasPrefix(raw, "data:") && len(raw) > limit {
		return textutil.Truncate(raw, limit) + "..."
	}
	return raw
}
