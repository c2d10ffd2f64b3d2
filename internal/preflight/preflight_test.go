package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cutout/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		status int
		passed bool
	}{
		{"ok", http.StatusOK, true},
		{"method not allowed", http.StatusMethodNotAllowed, true},
		{"server error", http.StatusBadGateway, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			result := CheckEndpoint(context.Background(), "Transform endpoint", srv.URL)
			if result.Passed != tc.passed {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tc.passed, result.Detail)
			}
		})
	}
}

func TestCheckEndpoint_Invalid(t *testing.T) {
	for _, endpoint := range []string{"", "not a url"} {
		if result := CheckEndpoint(context.Background(), "x", endpoint); result.Passed {
			t.Fatalf("expected failure for %q", endpoint)
		}
	}
}

func TestCheckEndpoint_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if result := CheckEndpoint(context.Background(), "x", url); result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestRunAllSkipsDisabledFeatures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Export.Ledger = false

	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 directory checks, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAllChecksRemoteEngineAndLedger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithRemoteEngine(srv.URL))
	results := RunAll(context.Background(), cfg)

	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = r.Passed
	}
	for _, want := range []string{"Transform endpoint", "Export ledger"} {
		passed, ok := names[want]
		if !ok {
			t.Fatalf("missing %s check in %+v", want, results)
		}
		if !passed {
			t.Fatalf("%s check failed: %+v", want, results)
		}
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %+v", results)
	}
}
