package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func fastConfig(retries int) Config {
	return Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int
	got, err := Do(context.Background(), fastConfig(3), nil,
		func(attempt int, err error, _ time.Duration) { retried = append(retried, attempt) },
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errTransient
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %s", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("expected retries [1 2], got %v", retried)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	err := DoVoid(context.Background(), fastConfig(2), nil, nil, func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errTransient) {
		t.Fatalf("expected ErrExhausted wrapping the last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableStops(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := DoVoid(context.Background(), fastConfig(5),
		func(err error) bool { return !errors.Is(err, permanent) }, nil,
		func(context.Context) error {
			calls++
			return permanent
		})
	if !errors.Is(err, permanent) || errors.Is(err, ErrExhausted) {
		t.Fatalf("expected the permanent error unwrapped, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	err := DoVoid(ctx, cfg, nil, func(int, error, time.Duration) { cancel() }, func(context.Context) error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("expected last error to be kept, got %v", err)
	}
}

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, BackoffFactor: 2}
	tests := []struct {
		n    int
		want time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
		{10, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.n); got != tt.want {
			t.Errorf("Backoff(%d): expected %v, got %v", tt.n, tt.want, got)
		}
	}
}
