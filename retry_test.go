package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollSucceedsOnLaterAttempt(t *testing.T) {
	calls := 0
	err := instantPolicy(5).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		if attempt != calls {
			t.Errorf("attempt = %d, want %d", attempt, calls)
		}
		return attempt == 3, nil
	})
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("check called %d times, want 3", calls)
	}
}

func TestPollExhausted(t *testing.T) {
	calls := 0
	err := instantPolicy(4).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Poll() error = %v, want ErrRetriesExhausted", err)
	}
	if calls != 4 {
		t.Errorf("check called %d times, want 4", calls)
	}
}

func TestPollCheckError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := instantPolicy(5).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Poll() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("check called %d times, want 1", calls)
	}
}

func TestPollZeroAttemptsChecksOnce(t *testing.T) {
	calls := 0
	err := instantPolicy(0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Poll() = %v after %d calls, want nil after 1", err, calls)
	}
}

func TestPollCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 10, Backoff: LinearBackoff(time.Hour)}

	err := policy.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
		cancel()
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Poll() error = %v, want context.Canceled", err)
	}
}

func TestPollTimeout(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, Backoff: LinearBackoff(time.Hour), Timeout: 20 * time.Millisecond}

	start := time.Now()
	err := policy.Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Poll() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Poll() took %s, timeout not honoured", elapsed)
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := LinearBackoff(2 * time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestStepBackOffReset(t *testing.T) {
	b := &stepBackOff{step: LinearBackoff(time.Second)}
	b.NextBackOff()
	if got := b.NextBackOff(); got != 2*time.Second {
		t.Errorf("second NextBackOff() = %s, want 2s", got)
	}
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("NextBackOff() after Reset = %s, want 1s", got)
	}
	if got := (&stepBackOff{}).NextBackOff(); got != 0 {
		t.Errorf("NextBackOff() without step = %s, want 0", got)
	}
}
