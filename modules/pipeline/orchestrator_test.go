package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry_SucceedsWithoutRetryingOnFirstSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestWithRetry_RetriesUpToMaxAttemptsThenReraises(t *testing.T) {
	failure := errors.New("boom")
	calls := 0
	start := time.Now()
	err := withRetry(context.Background(), 2, func(ctx context.Context) error {
		calls++
		return failure
	})
	elapsed := time.Since(start)

	if !errors.Is(err, failure) {
		t.Fatalf("expected the final error to be re-raised, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 1 initial try + 2 retries = 3 calls, got %d", calls)
	}
	// backoff is 2^0=1s then 2^1=2s between the 3 attempts.
	if elapsed < 3*time.Second {
		t.Errorf("expected backoff to have elapsed at least 3s, got %v", elapsed)
	}
}

func TestWithRetry_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 5, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected the first attempt to run before the cancel check on backoff, got %d calls", calls)
	}
}

func TestAllowedExtensions(t *testing.T) {
	for _, ext := range []string{".wav", ".mp3", ".m4a", ".flac", ".ogg", ".webm"} {
		if !allowedExtensions[ext] {
			t.Errorf("expected %s to be an allowed extension", ext)
		}
	}
	if allowedExtensions[".exe"] {
		t.Error("expected .exe to be rejected")
	}
}
