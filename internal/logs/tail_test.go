package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"cutout/internal/logs"
)

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutout.log")
	content := "a\nb\nc\npartial"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	tests := []struct {
		n    int
		want []string
	}{
		{n: 2, want: []string{"b", "c"}},
		{n: 10, want: []string{"a", "b", "c"}},
		{n: 0, want: nil},
	}
	for _, tt := range tests {
		lines, offset, err := logs.Last(path, tt.n)
		if err != nil {
			t.Fatalf("Last(%d): %v", tt.n, err)
		}
		if !slices.Equal(lines, tt.want) {
			t.Fatalf("Last(%d) = %#v, want %#v", tt.n, lines, tt.want)
		}
		if tt.n > 0 && offset != int64(len("a\nb\nc\n")) {
			t.Fatalf("Last(%d) offset = %d", tt.n, offset)
		}
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("Last(missing) = %v, %d, %v", lines, offset, err)
	}
}

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitForLines(t *testing.T, c *collector, want []string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if slices.Equal(c.snapshot(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("lines = %#v, want %#v", c.snapshot(), want)
}

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutout.log")
	appendTo(t, path, "start\n")
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, c.add) }()

	appendTo(t, path, "one\ntw")
	waitForLines(t, c, []string{"one"})
	appendTo(t, path, "o\n")
	waitForLines(t, c, []string{"one", "two"})

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Follow returned %v", err)
	}
}

func TestFollowReopensSwitchedPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "cutout-1.log")
	second := filepath.Join(dir, "cutout-2.log")
	pointer := filepath.Join(dir, "cutout.log")
	appendTo(t, first, "old run line that is fairly long\n")
	if err := os.Symlink(first, pointer); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	_, offset, err := logs.Last(pointer, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &collector{}
	go func() { _ = logs.Follow(ctx, pointer, offset, 10*time.Millisecond, c.add) }()
	time.Sleep(50 * time.Millisecond)

	appendTo(t, second, "new run\n")
	if err := os.Remove(pointer); err != nil {
		t.Fatalf("remove pointer: %v", err)
	}
	if err := os.Symlink(second, pointer); err != nil {
		t.Fatalf("relink pointer: %v", err)
	}
	waitForLines(t, c, []string{"new run"})
}
