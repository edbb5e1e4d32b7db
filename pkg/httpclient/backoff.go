package httpclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type retryKind int

const (
	retryOverload retryKind = iota + 1
	retryTransport
)

func (k retryKind) String() string {
	switch k {
	case retryOverload:
		return "overload"
	case retryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// classifiedBackOff is the retry schedule of one call. Both retry kinds share
// the attempt counter: overload retries wait overloadUnit * 2^attempt after
// incrementing it, saturating at maxOverload, transport retries wait a flat
// transportDelay.
//
// The kind must be set before each NextBackOff call.
type classifiedBackOff struct {
	attempt        int
	kind           retryKind
	overloadUnit   time.Duration
	maxOverload    time.Duration
	transportDelay time.Duration
}

func (b *classifiedBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.kind == retryOverload {
		return b.overloadDelay()
	}
	return b.transportDelay
}

func (b *classifiedBackOff) overloadDelay() time.Duration {
	delay := b.overloadUnit
	for i := 0; i < b.attempt; i++ {
		if delay > b.maxOverload/2 {
			return b.maxOverload
		}
		delay *= 2
	}
	return min(delay, b.maxOverload)
}

func (b *classifiedBackOff) Reset() {
	b.attempt = 0
}

// newRetrySchedule returns the classified schedule and the bounded policy
// wrapping it. The policy returns backoff.Stop once maxRetries retries were
// handed out, which is what moves a call to the failed state.
func newRetrySchedule(maxRetries int) (*classifiedBackOff, backoff.BackOff) {
	schedule := &classifiedBackOff{
		overloadUnit:   OverloadBackoffUnit,
		maxOverload:    MaxOverloadBackoff,
		transportDelay: TransportRetryDelay,
	}
	return schedule, backoff.WithMaxRetries(schedule, uint64(maxRetries))
}

// WaitFunc blocks for d or until ctx is done. A non-nil error aborts the call.
type WaitFunc func(ctx context.Context, d time.Duration) error

// SleepWithContext is the default WaitFunc.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
