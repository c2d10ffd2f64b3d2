package queue_test

import (
	"errors"
	"strings"
	"testing"

	"cutout/internal/queue"
	"cutout/internal/services"
)

func mustEnqueue(t *testing.T, store *queue.Store, name string) queue.Item {
	t.Helper()
	item, err := store.Enqueue(queue.Descriptor{Name: name, Data: []byte("png-bytes")})
	if err != nil {
		t.Fatalf("Enqueue(%q): %v", name, err)
	}
	return item
}

func TestEnqueueAssignsUniqueIDsInFIFOOrder(t *testing.T) {
	store := queue.NewStore()
	first := mustEnqueue(t, store, "a.png")
	second := mustEnqueue(t, store, "a.png")

	if !strings.HasPrefix(first.ID, queue.IDPrefix) {
		t.Fatalf("expected id prefix %q, got %q", queue.IDPrefix, first.ID)
	}
	if first.ID == second.ID {
		t.Fatal("duplicate submissions must get distinct ids")
	}
	if first.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	if first.SizeBytes != int64(len("png-bytes")) {
		t.Fatalf("expected size from data length, got %d", first.SizeBytes)
	}

	next, ok := store.NextPending()
	if !ok || next.ID != first.ID {
		t.Fatalf("NextPending returned %+v, want first item", next)
	}
	// NextPending does not mutate.
	again, _ := store.NextPending()
	if again.ID != first.ID || again.Status != queue.StatusPending {
		t.Fatalf("NextPending mutated state: %+v", again)
	}
}

func TestEnqueueRejectsMalformedDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc queue.Descriptor
	}{
		{"missing source", queue.Descriptor{Name: "x"}},
		{"both sources", queue.Descriptor{URL: "https://example.com/a.png", Data: []byte{1}}},
		{"unsupported scheme", queue.Descriptor{URL: "ftp://example.com/a.png"}},
		{"negative size", queue.Descriptor{URL: "https://example.com/a.png", SizeBytes: -1}},
		{"name too long", queue.Descriptor{URL: "https://example.com/a.png", Name: strings.Repeat("n", 300)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := queue.NewStore()
			_, err := store.Enqueue(tt.desc)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, queue.ErrInvalidDescriptor) || !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected invalid descriptor validation error, got %v", err)
			}
			if !store.Snapshot().IsZero() {
				t.Fatalf("rejected submission must not enter the queue: %+v", store.Snapshot())
			}
		})
	}
}

func TestDisplayNameDerivedFromURL(t *testing.T) {
	store := queue.NewStore()
	item, err := store.Enqueue(queue.Descriptor{URL: "https://example.com/photos/cat.jpg?size=large"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if item.Name != "cat.jpg" {
		t.Fatalf("expected name cat.jpg, got %q", item.Name)
	}
	data, err := store.Enqueue(queue.Descriptor{URL: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("Enqueue data uri: %v", err)
	}
	if data.Name != "image" {
		t.Fatalf("expected fallback name for data uri, got %q", data.Name)
	}
}

func TestTransitionsOnlyMoveForward(t *testing.T) {
	store := queue.NewStore()
	item := mustEnqueue(t, store, "a.png")

	if store.MarkDone(item.ID, queue.Result{}) {
		t.Fatal("MarkDone must not skip processing")
	}
	if store.MarkError(item.ID, "boom") {
		t.Fatal("MarkError must not skip processing")
	}
	if !store.MarkProcessing(item.ID) {
		t.Fatal("MarkProcessing should apply to a pending item")
	}
	if store.MarkProcessing(item.ID) {
		t.Fatal("MarkProcessing should not apply twice")
	}
	if _, ok := store.NextPending(); ok {
		t.Fatal("processing item must not be returned as pending")
	}
	if !store.MarkError(item.ID, "decode failed") {
		t.Fatal("MarkError should apply to a processing item")
	}
	got, ok := store.Item(item.ID)
	if !ok || got.Status != queue.StatusError || got.ErrorDetail != "decode failed" {
		t.Fatalf("unexpected item after error: %+v", got)
	}
	if store.MarkProcessing(item.ID) {
		t.Fatal("error is terminal")
	}
	if _, ok := store.NextPending(); ok {
		t.Fatal("error items are excluded from dequeue")
	}
}

func TestMarkDoneMovesItemToResults(t *testing.T) {
	store := queue.NewStore()
	item := mustEnqueue(t, store, "a.png")
	store.MarkProcessing(item.ID)

	if !store.MarkDone(item.ID, queue.Result{Width: 4, Height: 3}) {
		t.Fatal("MarkDone should apply")
	}
	if _, ok := store.Item(item.ID); ok {
		t.Fatal("completed item should leave the queue")
	}
	result, ok := store.Result(item.ID)
	if !ok {
		t.Fatal("result missing")
	}
	if result.Name != "a.png" || result.Width != 4 || result.Height != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.SubmittedAt != item.SubmittedAt || result.CompletedAt.IsZero() {
		t.Fatalf("timestamps not carried: %+v", result)
	}
	if store.MarkDone(item.ID, queue.Result{}) {
		t.Fatal("second MarkDone should be a no-op")
	}
	if len(store.Results()) != 1 {
		t.Fatalf("expected one result, got %d", len(store.Results()))
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	store := queue.NewStore()
	for name, applied := range map[string]bool{
		"MarkProcessing": store.MarkProcessing("img_missing"),
		"MarkDone":       store.MarkDone("img_missing", queue.Result{}),
		"MarkError":      store.MarkError("img_missing", "x"),
		"Remove":         store.Remove("img_missing"),
		"RemoveResult":   store.RemoveResult("img_missing"),
	} {
		if applied {
			t.Fatalf("%s applied to unknown id", name)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := queue.NewStore()
	item := mustEnqueue(t, store, "a.png")
	done := mustEnqueue(t, store, "b.png")
	store.MarkProcessing(done.ID)
	store.MarkDone(done.ID, queue.Result{})

	if !store.Remove(item.ID) {
		t.Fatal("first Remove should apply")
	}
	if store.Remove(item.ID) {
		t.Fatal("second Remove should be a no-op")
	}
	if !store.RemoveResult(done.ID) {
		t.Fatal("first RemoveResult should apply")
	}
	if store.RemoveResult(done.ID) {
		t.Fatal("second RemoveResult should be a no-op")
	}
	if !store.Snapshot().IsZero() {
		t.Fatalf("expected empty store, got %+v", store.Snapshot())
	}
}

func TestSnapshotAndClear(t *testing.T) {
	store := queue.NewStore()
	pending := mustEnqueue(t, store, "p.png")
	processing := mustEnqueue(t, store, "q.png")
	failed := mustEnqueue(t, store, "f.png")
	done := mustEnqueue(t, store, "d.png")

	for _, id := range []string{done.ID, processing.ID, failed.ID} {
		store.MarkProcessing(id)
	}
	store.MarkDone(done.ID, queue.Result{})
	store.MarkError(failed.ID, "boom")

	got := store.Snapshot()
	want := queue.Snapshot{Pending: 1, Processing: 1, Failed: 1, Completed: 1, Total: 3}
	if got != want {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}
	if store.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d", store.PendingCount())
	}
	if items := store.Items(); len(items) != 3 || items[0].ID != pending.ID {
		t.Fatalf("unexpected item order: %+v", items)
	}

	store.Clear()
	if !store.Snapshot().IsZero() {
		t.Fatalf("Clear should zero every count, got %+v", store.Snapshot())
	}
}

func TestStatusLabel(t *testing.T) {
	if got := queue.StatusProcessing.Label(); got != "Processing" {
		t.Fatalf("Label() = %q", got)
	}
	if status, ok := queue.ParseStatus("error"); !ok || status != queue.StatusError {
		t.Fatalf("ParseStatus(error) = %q, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("review"); ok {
		t.Fatal("unknown status should not parse")
	}
}
