package reactive

import "errors"

// ErrFlushBudget is returned by Flush when notifications keep producing
// writes past the runtime's round limit. This is almost always a cycle:
// a derived value or subscriber writing to one of its own sources.
var ErrFlushBudget = errors.New("reactive: flush round budget exceeded (E006)")

// ErrRuntimeClosed is returned when posting to a closed runtime.
var ErrRuntimeClosed = errors.New("reactive: runtime closed")

// ErrQueueFull is returned by Post when the task queue is full.
var ErrQueueFull = errors.New("reactive: task queue full")

// ErrSubscriberPanic is returned by Flush when a subscriber, derived
// computation or deferred callback panicked. The panic is recovered and
// logged; the rest of the flush still runs.
var ErrSubscriberPanic = errors.New("reactive: subscriber panicked")
