package testsupport

import (
	"testing"
	"time"

	"cutout/internal/queue"
)

// MustEnqueue adds an in-memory item named name to store.
func MustEnqueue(t testing.TB, store *queue.Store, name string) queue.Item {
	t.Helper()
	item, err := store.Enqueue(queue.Descriptor{Name: name, Data: []byte(name)})
	if err != nil {
		t.Fatalf("store.Enqueue(%q): %v", name, err)
	}
	return item
}

// SeedResult enqueues an item and drives it straight to done with a w x h output.
func SeedResult(t testing.TB, store *queue.Store, name string, w, h int) queue.Result {
	t.Helper()
	item := MustEnqueue(t, store, name)
	if !store.MarkProcessing(item.ID) {
		t.Fatalf("MarkProcessing(%s) did not apply", item.ID)
	}
	mask, cutout := SolidOutputImages(w, h)
	if !store.MarkDone(item.ID, queue.Result{Mask: mask, Cutout: cutout, Width: w, Height: h, CompletedAt: time.Now().UTC()}) {
		t.Fatalf("MarkDone(%s) did not apply", item.ID)
	}
	result, ok := store.Result(item.ID)
	if !ok {
		t.Fatalf("result %s missing", item.ID)
	}
	return result
}
