package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrInstrumentBusy is returned when another flip holds the instrument for too long.
var ErrInstrumentBusy = errors.New("another flip is in progress for this instrument")

// InstrumentLocks serializes flips per instrument. Flips on different
// instruments do not wait on each other.
type InstrumentLocks struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewInstrumentLocks creates an empty lock table.
func NewInstrumentLocks() *InstrumentLocks {
	return &InstrumentLocks{sems: make(map[string]*semaphore.Weighted)}
}

func (l *InstrumentLocks) get(instrument string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[instrument]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[instrument] = sem
	}
	return sem
}

// Acquire waits for the instrument's lock until ctx ends or timeout passes.
// The returned release func must be called exactly once.
func (l *InstrumentLocks) Acquire(ctx context.Context, instrument string, timeout time.Duration) (func(), error) {
	sem := l.get(instrument)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInstrumentBusy, instrument, err)
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
