package reactive

import (
	"reflect"
	"sync"
)

// signalBase provides type-erased subscriber management.
// It is embedded in Cell[T] and is what the scheduler queues.
type signalBase struct {
	id uint64

	// rt is the runtime whose scheduler delivers notifications.
	rt *Runtime

	// subs are the listeners subscribed to this cell, in subscription order.
	subs  []Listener
	subMu sync.RWMutex
}

// subscribe adds a listener. Deduplicates by listener ID.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener. Removing an absent listener is a no-op.
func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// subscribers returns a copy of the subscriber list, so subscribers may
// (un)subscribe while being notified.
func (s *signalBase) subscribers() []Listener {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	return subs
}

// subscriberCount returns the number of current subscribers.
func (s *signalBase) subscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// Cell is an observable value container.
type Cell[T any] struct {
	base signalBase

	value T
	mu    sync.RWMutex

	// equal decides whether a write changes the value. nil means defaultEquals.
	equal func(T, T) bool
}

// NewCell creates a cell bound to the current goroutine's runtime.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		base: signalBase{
			id: nextID(),
			rt: Current(),
		},
		value: initial,
	}
}

// WithEquals sets the equality predicate used by Write.
// Call it right after NewCell; it is not synchronized with writers.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// ReadAny returns the current value as any. Implements Dynamic.
func (c *Cell[T]) ReadAny() any {
	return c.Read()
}

// Write stores v and schedules a notification round, unless v is equal to
// the current value, in which case nothing happens.
func (c *Cell[T]) Write(v T) {
	c.mu.Lock()
	changed := !c.equals(c.value, v)
	if changed {
		c.value = v
	}
	c.mu.Unlock()

	if changed {
		c.base.rt.sched.enqueue(&c.base)
	}
}

// Update atomically reads and writes the value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	next := fn(c.value)
	changed := !c.equals(c.value, next)
	if changed {
		c.value = next
	}
	c.mu.Unlock()

	if changed {
		c.base.rt.sched.enqueue(&c.base)
	}
}

// Subscribe adds l to the notified set.
func (c *Cell[T]) Subscribe(l Listener) {
	c.base.subscribe(l)
}

// Unsubscribe removes l from the notified set.
func (c *Cell[T]) Unsubscribe(l Listener) {
	c.base.unsubscribe(l)
}

// OnChange subscribes fn and returns the subscription.
func (c *Cell[T]) OnChange(fn func()) *Subscription {
	return Listen(fn, c)
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.base.id
}

// Runtime returns the runtime this cell notifies through.
func (c *Cell[T]) Runtime() *Runtime {
	return c.base.rt
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals is identity equality: == for comparable dynamic types,
// which compares pointers by address, and reference identity for slices
// and maps. Funcs never compare equal.
func defaultEquals[T any](a, b T) bool {
	return identical(any(a), any(b))
}

// identical compares two dynamic values without ever looking inside
// pointers, slices or maps.
func identical(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if !ta.Comparable() {
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		switch ta.Kind() {
		case reflect.Slice:
			return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
		case reflect.Map:
			return va.Pointer() == vb.Pointer()
		default:
			// Funcs cannot be compared; closures over different state
			// share a code pointer, so they always count as changed.
			return false
		}
	}

	// Structs and arrays are comparable by type but can still hold
	// interface fields with non-comparable dynamic values.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
