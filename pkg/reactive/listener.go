package reactive

import "sync/atomic"

// Listener is anything that can be notified when a source changes.
type Listener interface {
	// Notify is called once per notification round in which the source
	// it is subscribed to changed.
	Notify()

	// ID returns a unique identifier used for subscription dedupe.
	ID() uint64
}

// Source is anything a Listener can subscribe to.
type Source interface {
	ID() uint64
	Subscribe(l Listener)
	Unsubscribe(l Listener)
}

// Readable is a typed Source.
type Readable[T any] interface {
	Source
	Read() T
}

// Dynamic is a type-erased Source. The tree patcher uses it to read cells
// without knowing their element type.
type Dynamic interface {
	Source
	ReadAny() any
}

// Subscription is a callback subscribed to one or more sources.
// Cancel unsubscribes it from all of them.
type Subscription struct {
	id        uint64
	fn        func()
	sources   []Source
	cancelled atomic.Bool
}

// Listen subscribes fn to every source and returns the subscription.
func Listen(fn func(), sources ...Source) *Subscription {
	sub := &Subscription{
		id:      nextID(),
		fn:      fn,
		sources: sources,
	}
	for _, src := range sources {
		if src != nil {
			src.Subscribe(sub)
		}
	}
	return sub
}

// ID implements Listener.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Notify implements Listener.
func (s *Subscription) Notify() {
	if s.cancelled.Load() {
		return
	}
	s.fn()
}

// Cancel removes the subscription from its sources. Repeated calls are no-ops.
func (s *Subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	for _, src := range s.sources {
		if src != nil {
			src.Unsubscribe(s)
		}
	}
}

// Cancelled reports whether Cancel has been called.
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}
