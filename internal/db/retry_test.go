package db

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{10, 10 * time.Second},
		{200, 10 * time.Second},
	}

	for _, tc := range tests {
		got := Backoff(tc.attempt)
		if got < tc.min || got >= tc.min+250*time.Millisecond {
			t.Fatalf("Backoff(%d) = %v, want [%v, %v)", tc.attempt, got, tc.min, tc.min+250*time.Millisecond)
		}
	}
}

func TestConnect_BadURLFailsWithoutRetrying(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := Connect(ctx, log, "::not a url::", 5, 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled context must stop the retry loop")
	}
}
