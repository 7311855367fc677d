package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/connectfood/internal/models"
)

// fakeWriter implements SnapshotWriter for tests.
type fakeWriter struct {
	fail  int // number of times to fail before succeeding
	calls int
	key   string
}

func (f *fakeWriter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.calls++
	f.key = key
	if f.calls <= f.fail {
		return errors.New("hset fail")
	}
	return nil
}

func TestWriteSnapshotWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeWriter{fail: 2}
	r := models.FreshnessReading{ListingID: "l1", Freshness: 90, TemperatureC: 5.5, Humidity: 60, Timestamp: time.Now()}
	start := time.Now()
	if err := writeSnapshotWithRetry(context.Background(), f, r, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.key != "listing:freshness:l1" {
		t.Fatalf("unexpected key %q", f.key)
	}
}

func TestWriteSnapshotWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeWriter{fail: 5}
	r := models.FreshnessReading{ListingID: "l1"}
	if err := writeSnapshotWithRetry(context.Background(), f, r, 3, time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
}
