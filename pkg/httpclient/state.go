package httpclient

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

type state int

const (
	stateAttempting state = iota
	stateBackoffWait
	stateSuccess
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoffWait:
		return "backoff_wait"
	case stateSuccess:
		return "success"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// attemptState lives inside a single Execute call.
type attemptState struct {
	state    state
	attempts int
	schedule *classifiedBackOff
	policy   backoff.BackOff

	delay  time.Duration
	reason string
	waits  []time.Duration

	result Result
	err    *ClientError
}

func newAttemptState(maxRetries int) *attemptState {
	schedule, policy := newRetrySchedule(maxRetries)
	return &attemptState{
		state:    stateAttempting,
		schedule: schedule,
		policy:   policy,
	}
}

// attempt is the retry counter, 0 on the first attempt.
func (s *attemptState) attempt() int {
	return s.schedule.attempt
}

// transition applies the outcome of the attempt that just finished.
//
//	success                          -> Success
//	overload, budget left            -> BackoffWait (2^attempt s)
//	transport, budget left           -> BackoffWait (1 s)
//	overload/transport, exhausted    -> Failed
//	upstream/timeout/canceled/reject -> Failed
func (s *attemptState) transition(out attemptOutcome) {
	s.attempts++

	switch out.kind {
	case outcomeSuccess:
		s.state = stateSuccess
		s.result = out.result
		return
	case outcomeOverload:
		s.retryOrFail(retryOverload, out)
	case outcomeTransport:
		s.retryOrFail(retryTransport, out)
	default:
		s.fail(out.failure)
	}
}

func (s *attemptState) retryOrFail(kind retryKind, out attemptOutcome) {
	s.schedule.kind = kind
	delay := s.policy.NextBackOff()
	if delay == backoff.Stop {
		s.fail(out.failure)
		return
	}
	s.state = stateBackoffWait
	s.delay = delay
	s.reason = out.reason
	s.waits = append(s.waits, delay)
}

// resume leaves BackoffWait after the wait completed.
func (s *attemptState) resume() {
	s.state = stateAttempting
	s.delay = 0
	s.reason = ""
}

func (s *attemptState) fail(err *ClientError) {
	s.state = stateFailed
	s.err = err
}

func (s *attemptState) done() bool {
	return s.state == stateSuccess || s.state == stateFailed
}
