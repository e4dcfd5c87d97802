package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2,
		RetryableStatuses: map[int]bool{
			429: true, 500: true, 503: true,
		},
		RetryableKinds: map[ErrKind]bool{
			KindTimeout:    true,
			KindConnection: true,
		},
	}
}

func TestBackOffDelaySequence(t *testing.T) {
	b := testPolicy().NewBackOff(context.Background())

	// max_attempts=3: two waits (before attempts 2 and 3), then Stop.
	if got := b.NextBackOff(); got != 5*time.Second {
		t.Errorf("delay before attempt 2 = %v, want 5s", got)
	}
	if got := b.NextBackOff(); got != 10*time.Second {
		t.Errorf("delay before attempt 3 = %v, want 10s", got)
	}
	if got := b.NextBackOff(); got != backoff.Stop {
		t.Errorf("after max attempts NextBackOff = %v, want Stop", got)
	}
}

func TestBackOffCappedAtMaxDelay(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 5
	p.MaxDelay = 8 * time.Second

	b := p.NewBackOff(context.Background())
	want := []time.Duration{5 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("delay %d = %v, want %v", i, got, w)
		}
	}
	if got := b.NextBackOff(); got != backoff.Stop {
		t.Errorf("expected Stop after %d waits, got %v", len(want), got)
	}
}

func TestBackOffSingleAttempt(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 1

	b := p.NewBackOff(context.Background())
	if got := b.NextBackOff(); got != backoff.Stop {
		t.Errorf("max_attempts=1 should never wait, got %v", got)
	}
}

func TestRetryableStatus(t *testing.T) {
	p := testPolicy()
	tests := []struct {
		code int
		want bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{502, false}, // not enumerated in this policy
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		if got := p.RetryableStatus(tt.code); got != tt.want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

// timeoutErr implements net.Error with Timeout() true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	if got := Classify(timeoutErr{}); got != KindTimeout {
		t.Errorf("Classify(timeout) = %v, want %v", got, KindTimeout)
	}
	if got := Classify(errors.New("connection refused")); got != KindConnection {
		t.Errorf("Classify(plain) = %v, want %v", got, KindConnection)
	}
}

func TestRetryableError(t *testing.T) {
	p := testPolicy()
	p.RetryableKinds = map[ErrKind]bool{KindConnection: true}

	if p.RetryableError(timeoutErr{}) {
		t.Error("timeout should not be retryable when only connection kind is enumerated")
	}
	if !p.RetryableError(errors.New("reset")) {
		t.Error("connection kind should be retryable")
	}
}

func TestPermanentStopsRetry(t *testing.T) {
	p := testPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = time.Millisecond

	calls := 0
	fatal := errors.New("bad request")
	err := backoff.Retry(func() error {
		calls++
		return Permanent(fatal)
	}, p.NewBackOff(context.Background()))

	if !errors.Is(err, fatal) {
		t.Errorf("expected the permanent error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
