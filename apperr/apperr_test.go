package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesKindOnly(t *testing.T) {
	err := New(KindForbidden, "user %d may not do that", 3)
	if !errors.Is(err, Forbidden) {
		t.Fatal("expected errors.Is to match Forbidden")
	}
	if errors.Is(err, NotFound) {
		t.Fatal("did not expect errors.Is to match NotFound")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !errors.Is(wrapped, Forbidden) {
		t.Fatal("expected match through fmt.Errorf wrapping")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf(plain) = %q, want INTERNAL", got)
	}
	if got := KindOf(New(KindConflict, "dup")); got != KindConflict {
		t.Errorf("KindOf(conflict) = %q", got)
	}
}

func TestFromContext(t *testing.T) {
	err := FromContext(context.DeadlineExceeded, "password check")
	if err.Kind != KindUnavailable || !err.Retryable {
		t.Fatalf("deadline should map to retryable Unavailable, got %+v", err)
	}
	err = FromContext(errors.New("disk on fire"), "lookup")
	if err.Kind != KindInternal {
		t.Fatalf("plain error should map to Internal, got %s", err.Kind)
	}
	if !errors.Is(err, Internal) {
		t.Fatal("expected errors.Is(err, Internal)")
	}
}
