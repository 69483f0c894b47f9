package core

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is returned by CallLimiter.Increment once the maximum is passed.
var ErrLimitExceeded = errors.New("call limit exceeded")

// CallLimiter counts calls against an optional maximum. A maximum of 0 means
// unlimited. It is not safe for concurrent use; each engine owns one.
type CallLimiter struct {
	max   int
	count int
}

// NewCallLimiter creates a new limiter with a max number of calls.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment increases the call counter and returns an error if the limit is exceeded.
func (cl *CallLimiter) Increment() error {
	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("%w: %d", ErrLimitExceeded, cl.max)
	}
	return nil
}

// Count returns the number of calls made since the last Reset.
func (cl *CallLimiter) Count() int { return cl.count }

// Remaining returns how many calls are left, or -1 when unlimited.
func (cl *CallLimiter) Remaining() int {
	if cl.max == 0 {
		return -1
	}
	return cl.max - cl.count
}

// Reset zeroes the counter.
func (cl *CallLimiter) Reset() { cl.count = 0 }
