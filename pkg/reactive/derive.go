package reactive

import (
	"fmt"
	"sync/atomic"
)

// Derived is a value recomputed synchronously whenever one of its declared
// sources notifies. It is itself a Source, so derived values can be chained
// or handed to the tree patcher.
//
// Dependencies are the explicit source list only; cells read inside the
// compute function but not listed are not tracked.
type Derived[T any] struct {
	cell    *Cell[T]
	compute func() T
	sources []Source

	// listener is the shared recompute subscription on every source.
	listener *Subscription

	// computing guards against compute re-entering its own recompute.
	computing atomic.Bool
	disposed  atomic.Bool
}

// Derive creates a derived value. compute runs once before Derive returns
// to establish the initial value, then once per notification from any
// source. Two sources notifying in the same round cause two recomputations.
//
// Created during a component render, the derived value is disposed with
// that component.
func Derive[T any](compute func() T, sources ...Source) *Derived[T] {
	d := &Derived[T]{
		compute: compute,
		sources: sources,
	}
	d.cell = NewCell(d.run())
	d.listener = Listen(d.recompute, sources...)

	OnScopeCleanup(d.Dispose)
	return d
}

// WithEquals sets the equality predicate used when storing recomputed values.
func (d *Derived[T]) WithEquals(fn func(T, T) bool) *Derived[T] {
	d.cell.WithEquals(fn)
	return d
}

// run invokes compute with the re-entry guard.
func (d *Derived[T]) run() T {
	if !d.computing.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("[TIDE E006] Derived value re-entered its own computation (%d sources)", len(d.sources)))
	}
	defer d.computing.Store(false)
	return d.compute()
}

// recompute is subscribed to every source.
func (d *Derived[T]) recompute() {
	if d.disposed.Load() {
		return
	}

	value := d.run()
	prev := d.cell.Read()

	if d.cell.equals(prev, value) {
		// The cell keeps prev. A distinct-but-equal result is never
		// stored, so it is the one released.
		if !identical(any(prev), any(value)) {
			disposeValue(any(value))
		}
		return
	}

	disposeValue(any(prev))
	d.cell.Write(value)
}

// Read returns the current value.
func (d *Derived[T]) Read() T {
	return d.cell.Read()
}

// ReadAny returns the current value as any. Implements Dynamic.
func (d *Derived[T]) ReadAny() any {
	return d.cell.Read()
}

// Subscribe adds l to the notified set.
func (d *Derived[T]) Subscribe(l Listener) {
	d.cell.Subscribe(l)
}

// Unsubscribe removes l from the notified set.
func (d *Derived[T]) Unsubscribe(l Listener) {
	d.cell.Unsubscribe(l)
}

// OnChange subscribes fn and returns the subscription.
func (d *Derived[T]) OnChange(fn func()) *Subscription {
	return Listen(fn, d)
}

// ID returns the unique identifier of the backing cell.
func (d *Derived[T]) ID() uint64 {
	return d.cell.ID()
}

// Dispose stops recomputation and disposes the current value when it is
// Disposable. Idempotent.
func (d *Derived[T]) Dispose() {
	if d.disposed.Swap(true) {
		return
	}
	if d.listener != nil {
		d.listener.Cancel()
	}
	disposeValue(any(d.cell.Read()))
}

// Disposed reports whether Dispose has been called.
func (d *Derived[T]) Disposed() bool {
	return d.disposed.Load()
}
