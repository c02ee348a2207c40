package reactive

import (
	"cmp"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultMaxRounds bounds the number of notification rounds in one Flush.
const DefaultMaxRounds = 100

// FlushStats describes one completed Flush.
type FlushStats struct {
	// Rounds is the number of notification rounds run.
	Rounds int

	// Notified is the number of cell notifications delivered.
	Notified int

	// Deferred is the number of deferred callbacks run.
	Deferred int

	// Dropped is the number of pending cells discarded when the round
	// budget was exceeded.
	Dropped int

	// Panics is the number of recovered subscriber panics.
	Panics int

	// Duration is the wall time spent flushing.
	Duration time.Duration

	// Err wraps ErrFlushBudget when the budget was exceeded and
	// ErrSubscriberPanic when a subscriber panicked.
	Err error
}

// scheduler holds the pending set of written cells for one runtime.
type scheduler struct {
	mu sync.Mutex

	// pending cells in first-write order; queued dedupes them by ID.
	pending []*signalBase
	queued  map[uint64]struct{}

	// deferred callbacks run once on the next round.
	deferred []func()

	maxRounds int
	flushing  bool

	// onPanic is told about every recovered subscriber panic.
	onPanic func(r any, stack []byte)
}

func newScheduler(maxRounds int) *scheduler {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &scheduler{
		queued:    make(map[uint64]struct{}),
		maxRounds: maxRounds,
	}
}

// enqueue adds a written cell to the pending set. A cell already pending
// for the next round is not added twice.
func (s *scheduler) enqueue(b *signalBase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queued[b.id]; ok {
		return
	}
	s.queued[b.id] = struct{}{}
	s.pending = append(s.pending, b)
}

// deferCall schedules fn to run once during the next round.
func (s *scheduler) deferCall(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = append(s.deferred, fn)
}

// size returns the number of pending cells and deferred callbacks.
func (s *scheduler) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) + len(s.deferred)
}

// take swaps out the pending set for one round.
func (s *scheduler) take() ([]*signalBase, []func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, calls := s.pending, s.deferred
	s.pending = nil
	s.deferred = nil
	if len(round) > 0 {
		s.queued = make(map[uint64]struct{})
	}
	return round, calls
}

// flush drains the pending set round by round. Writes made by subscribers
// land in the next round. Returns nested=true without doing anything when
// called from inside a running flush.
func (s *scheduler) flush() (stats FlushStats, nested bool) {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return FlushStats{}, true
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	var budgetErr, panicErr error
	start := time.Now()
	for s.size() > 0 {
		if stats.Rounds >= s.maxRounds {
			round, calls := s.take()
			stats.Dropped = len(round) + len(calls)
			budgetErr = fmt.Errorf("%w: %d rounds, %d pending dropped",
				ErrFlushBudget, stats.Rounds, stats.Dropped)
			break
		}

		stats.Rounds++
		round, calls := s.take()
		for _, b := range round {
			for _, sub := range b.subscribers() {
				if err := s.call(sub.Notify); err != nil {
					stats.Panics++
					panicErr = cmp.Or(panicErr, err)
				}
			}
			stats.Notified++
		}
		for _, fn := range calls {
			if err := s.call(fn); err != nil {
				stats.Panics++
				panicErr = cmp.Or(panicErr, err)
			}
			stats.Deferred++
		}
	}
	stats.Duration = time.Since(start)
	stats.Err = errors.Join(budgetErr, panicErr)

	return stats, false
}

// call runs one notification. A panic is recovered and returned wrapped in
// ErrSubscriberPanic, so one failing subscriber does not starve the rest
// of the round.
func (s *scheduler) call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if s.onPanic != nil {
				s.onPanic(r, debug.Stack())
			}
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	fn()
	return nil
}
