// Package reactive provides the reactive core for tide.
//
// Dependencies are declared explicitly: a derived value names the cells it
// reads when it is created, and is recomputed whenever one of them changes.
// Notifications are deferred to the end of the current execution unit and
// coalesced per cell.
//
// # Core Types
//
// Cell[T] is an observable value container:
//
//	count := NewCell(0)
//	value := count.Read()
//	count.Write(5)          // schedules a notification round
//	count.Update(func(n int) int { return n + 1 })
//
// Derived[T] is a value recomputed from a fixed list of sources:
//
//	sum := Derive(func() int { return a.Read() + b.Read() }, a, b)
//
// Component wraps a render function so that cleanups registered with
// OnCleanup during the render are released when the returned Material is
// disposed:
//
//	Timer := Component(func(p TimerProps) *dom.Node {
//	    stop := Interval(time.Second, tick)
//	    OnCleanup(stop)
//	    return el.Div(...)
//	})
//
// # Execution Units
//
// A Runtime owns a scheduler. Writes enqueue the written cell; Flush drains
// the queue in rounds, running each pending cell's subscribers once per
// round. Runtime.Loop runs posted tasks one at a time and flushes after each,
// which makes one task plus its flush a single execution unit.
//
// Within a round, cells fire in the order they were first written. Callers
// should not depend on that order.
//
// # Thread Safety
//
// Cell values are guarded and can be read or written from any goroutine, but
// subscribers only run inside Flush on the goroutine that calls it. The
// tracking context (bound runtime and scope stack) is per goroutine; use
// WithRuntime or Runtime.Post to move work onto a runtime.
package reactive
