package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cutout/internal/api"
)

func TestStatusEntryFormat(t *testing.T) {
	tests := []struct {
		name  string
		entry statusEntry
		want  string
	}{
		{"with message", statusEntry{"Daemon", sevError, "Not running"}, "  Daemon:        [ERROR] Not running"},
		{"bare tag", statusEntry{"Engine", sevInfo, ""}, "  Engine:        [INFO]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.format(false); got != tt.want {
				t.Fatalf("format mismatch\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}

	colored := statusEntry{"Daemon", sevOK, "Running"}.format(true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
}

func TestIsTerminalRejectsNonTTY(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if isTerminal(f) {
		t.Fatal("regular files are never terminals")
	}
}

func TestReportSection(t *testing.T) {
	var buf bytes.Buffer
	r := newReport(&buf)
	r.section(" Queue ")
	r.entries(statusEntry{"Pending", sevInfo, "3"})
	want := "== Queue ==\n-----------\n  Pending:       [INFO] 3\n"
	if buf.String() != want {
		t.Fatalf("report output\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestDescribeDaemon(t *testing.T) {
	tests := []struct {
		name   string
		status api.DaemonStatus
		want   []string
	}{
		{
			name:   "offline",
			status: api.DaemonStatus{Engine: "local"},
			want:   []string{"[WARN] Not running", "[INFO] local"},
		},
		{
			name: "idle",
			status: api.DaemonStatus{
				Running:    true,
				PID:        42,
				Engine:     "remote",
				APIAddress: "127.0.0.1:7491",
			},
			want: []string{"[OK] Running (pid 42)", "http://127.0.0.1:7491/api", "[INFO] Idle"},
		},
		{
			name: "processing with error",
			status: api.DaemonStatus{
				Running: true,
				Workflow: api.WorkflowStatus{
					Running:   true,
					LastItem:  &api.QueueItem{Name: "cat.png"},
					LastError: "decode failed",
				},
			},
			want: []string{"[INFO] Disabled", "Processing cat.png", "[ERROR] decode failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			for _, e := range describeDaemon(tt.status) {
				lines = append(lines, e.format(false))
			}
			joined := strings.Join(lines, "\n")
			for _, want := range tt.want {
				requireContains(t, joined, want)
			}
		})
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, 1)
	requireContains(t, out, "only")
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildSubmitEntry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(file, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entry, err := buildSubmitEntry(file)
	if err != nil {
		t.Fatalf("buildSubmitEntry(file): %v", err)
	}
	if entry.Name != "photo.jpg" || string(entry.Data) != "bytes" || entry.URL != "" {
		t.Fatalf("unexpected file entry %+v", entry)
	}

	for _, raw := range []string{"https://example.com/a.png", "HTTP://example.com/b", "data:image/png;base64,AAAA", "file:///tmp/x.png"} {
		entry, err := buildSubmitEntry(raw)
		if err != nil {
			t.Fatalf("buildSubmitEntry(%q): %v", raw, err)
		}
		if entry.URL != raw || entry.Data != nil {
			t.Fatalf("expected passthrough for %q, got %+v", raw, entry)
		}
	}

	if _, err := buildSubmitEntry(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	if _, err := buildSubmitEntry("  "); err == nil {
		t.Fatal("expected error for empty argument")
	}
}

func TestStatusNamesListsEveryStatus(t *testing.T) {
	if got := statusNames(); got != "pending, processing, done, error" {
		t.Fatalf("statusNames() = %q", got)
	}
}
