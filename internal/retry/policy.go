// Package retry defines the retry/backoff policy shared by the radar
// fetcher and the tweet publisher. Each call site gets its own Policy
// value; there is no ambient retry state.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrKind classifies a network-level failure for retryability checks.
type ErrKind string

const (
	// KindTimeout covers deadline and timeout failures. Retrying after a
	// timeout on a write endpoint can duplicate the remote effect; call
	// sites own that trade-off.
	KindTimeout ErrKind = "timeout"
	// KindConnection covers every other transport failure (refused,
	// reset, DNS, TLS).
	KindConnection ErrKind = "connection"
)

// Classify maps a transport error to an ErrKind.
func Classify(err error) ErrKind {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindConnection
}

// Policy is an explicit retry/backoff configuration. The delay before
// attempt n (n >= 2) is min(BaseDelay * Multiplier^(n-2), MaxDelay).
// Randomization is disabled so the sequence is deterministic.
type Policy struct {
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64

	RetryableStatuses map[int]bool
	RetryableKinds    map[ErrKind]bool
}

// RetryableStatus reports whether an HTTP status code is enumerated as
// transient.
func (p Policy) RetryableStatus(code int) bool {
	return p.RetryableStatuses[code]
}

// RetryableError reports whether a transport-level error is of a kind
// enumerated as transient.
func (p Policy) RetryableError(err error) bool {
	return p.RetryableKinds[Classify(err)]
}

// NewBackOff builds the backoff schedule for one call, bounded by
// MaxAttempts and the given context.
func (p Policy) NewBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Permanent marks err as fatal so the backoff loop stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
