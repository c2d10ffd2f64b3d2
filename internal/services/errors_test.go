package services_test

import (
	"errors"
	"strings"
	"testing"

	"cutout/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransform, "transform", "decode", "unsupported image", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransform) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transform", "decode", "unsupported image", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestDetailsClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind services.ErrorKind
	}{
		{"validation", services.Wrap(services.ErrValidation, "queue", "enqueue", "missing source", nil), services.KindValidation},
		{"timeout", services.Wrap(services.ErrTimeout, "workflow", "transform", "deadline", nil), services.KindTimeout},
		{"transform", services.Wrap(services.ErrTransform, "transform", "remote", "status 500", nil), services.KindTransform},
		{"plain", errors.New("plain"), services.KindUnknown},
		{"nil", nil, services.KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			details := services.Details(tc.err)
			if details.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", details.Kind, tc.kind)
			}
		})
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "queue", "enqueue", "missing source", nil)
	details := services.Details(err)
	if details.Message != "queue: enqueue: missing source" {
		t.Fatalf("unexpected message %q", details.Message)
	}
}
