package api

import (
	"strings"
	"testing"
	"time"

	"cutout/internal/export"
	"cutout/internal/queue"
	"cutout/internal/workflow"
)

func TestFromQueueItem(t *testing.T) {
	submitted := time.Date(2026, 5, 6, 7, 8, 9, 123000000, time.UTC)
	dto := FromQueueItem(queue.Item{
		ID:          "img_1",
		Name:        "cat.png",
		Source:      queue.Source{URL: "https://example.com/cat.png"},
		SizeBytes:   42,
		Status:      queue.StatusError,
		ErrorDetail: "unsupported or corrupt image",
		SubmittedAt: submitted,
	})

	if dto.Status != "error" || dto.StatusLabel != "Error" {
		t.Fatalf("status = %q label = %q", dto.Status, dto.StatusLabel)
	}
	if dto.SourceKind != "url" || dto.SourceURL != "https://example.com/cat.png" {
		t.Fatalf("source = %q %q", dto.SourceKind, dto.SourceURL)
	}
	if dto.SubmittedAt != "2026-05-06T07:08:09.123Z" {
		t.Fatalf("submittedAt = %q", dto.SubmittedAt)
	}
	if dto.ErrorMessage == "" {
		t.Fatal("expected error message")
	}
	if !ParseTime(dto.SubmittedAt).Equal(submitted) {
		t.Fatalf("ParseTime round trip = %v", ParseTime(dto.SubmittedAt))
	}
}

func TestFromQueueItemTruncatesDataURI(t *testing.T) {
	uri := "data:image/png;base64," + strings.Repeat("A", 500)
	dto := FromQueueItem(queue.Item{ID: "img_1", Source: queue.Source{URL: uri}, Status: queue.StatusPending})
	if len(dto.SourceURL) > 70 || !strings.HasSuffix(dto.SourceURL, "...") {
		t.Fatalf("data uri not truncated: %d chars", len(dto.SourceURL))
	}
}

func TestFromResult(t *testing.T) {
	dto := FromResult(queue.Result{ID: "img_9", Name: "dog.jpg", Width: 10, Height: 20})
	if dto.CutoutURL != "/api/results/img_9/cutout.png" || dto.MaskURL != "/api/results/img_9/mask.png" {
		t.Fatalf("urls = %q %q", dto.CutoutURL, dto.MaskURL)
	}
	if dto.SubmittedAt != "" || dto.CompletedAt != "" {
		t.Fatal("expected zero timestamps to be omitted")
	}
}

func TestFromStatusSummary(t *testing.T) {
	last := queue.Item{ID: "img_2", Status: queue.StatusDone}
	summary := workflow.StatusSummary{
		Running:   true,
		LastError: "boom",
		LastItem:  &last,
		State: workflow.State{
			Running:  true,
			Snapshot: queue.Snapshot{Pending: 2, Processing: 1, Completed: 3, Total: 6},
		},
	}
	wf := FromStatusSummary(summary)
	if !wf.Running || wf.LastError != "boom" {
		t.Fatalf("unexpected %+v", wf)
	}
	if wf.Counts.Pending != 2 || wf.Counts.Processing != 1 || wf.Counts.Completed != 3 || wf.Counts.Total != 6 {
		t.Fatalf("counts = %+v", wf.Counts)
	}
	if wf.LastItem == nil || wf.LastItem.ID != "img_2" {
		t.Fatalf("last item = %+v", wf.LastItem)
	}
}

func TestFromExportRecords(t *testing.T) {
	records := FromExportRecords([]export.Record{{ID: 1, ItemID: "img_1", Path: "/out/a_no_bg.png"}})
	if len(records) != 1 || records[0].ItemID != "img_1" || records[0].ExportedAt != "" {
		t.Fatalf("records = %+v", records)
	}
}

func TestRemoveByID(t *testing.T) {
	present := map[string]bool{"img_1": true, "img_3": true}
	remove := func(id string) bool {
		if present[id] {
			delete(present, id)
			return true
		}
		return false
	}

	got := RemoveByID(remove, []string{"img_1", "img_2", "img_3", "img_1"})
	if got.RemovedCount != 2 {
		t.Fatalf("removed = %d", got.RemovedCount)
	}
	want := []RemoveOutcome{RemoveOutcomeRemoved, RemoveOutcomeNotFound, RemoveOutcomeRemoved, RemoveOutcomeNotFound}
	for i, outcome := range want {
		if got.Items[i].Outcome != outcome {
			t.Fatalf("item %d outcome = %s, want %s", i, got.Items[i].Outcome, outcome)
		}
	}
}
