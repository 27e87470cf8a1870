package core

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrLimitExceeded is returned by ModelLimiter.Increment once the budget is
// spent.
var ErrLimitExceeded = errors.New("model call limit exceeded")

// ModelLimiter caps the model round trips of one grounded completion. A
// budget <= 0 means unlimited.
type ModelLimiter struct {
	budget int64
	calls  atomic.Int64
}

func NewModelLimiter(budget int) *ModelLimiter {
	return &ModelLimiter{budget: int64(budget)}
}

// Increment records a call. It fails once more calls were made than the
// budget allows; the call is still counted.
func (l *ModelLimiter) Increment() error {
	n := l.calls.Add(1)
	if l.budget > 0 && n > l.budget {
		return fmt.Errorf("%w: max %d", ErrLimitExceeded, l.budget)
	}
	return nil
}

func (l *ModelLimiter) Count() int { return int(l.calls.Load()) }

// Remaining is -1 for an unlimited budget and never drops below 0 otherwise.
func (l *ModelLimiter) Remaining() int {
	if l.budget <= 0 {
		return -1
	}
	return int(max(l.budget-l.calls.Load(), 0))
}
