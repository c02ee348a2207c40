package reactive

import (
	"sync"
	"sync/atomic"
)

// Scope collects cleanup callbacks for one component invocation.
//
// Scopes are kept on a per-goroutine stack. Component pushes a fresh scope
// for the duration of its render call and pops it afterwards, so a nested
// component's cleanups never end up in its parent's scope and vice versa.
type Scope struct {
	id uint64

	cleanups   []func()
	cleanupsMu sync.Mutex

	disposed atomic.Bool
}

func newScope() *Scope {
	return &Scope{id: nextID()}
}

// BeginScope pushes a fresh scope onto the current goroutine's stack and
// returns it. Pair every call with EndScope.
func BeginScope() *Scope {
	s := newScope()
	pushScope(s)
	return s
}

// EndScope pops s (and anything left above it) off the current goroutine's
// stack and returns it.
func EndScope(s *Scope) *Scope {
	popScope(s)
	return s
}

// OnCleanup registers fn with the innermost component scope. Outside any
// component, fn is attached to the current runtime's root scope and runs
// when the runtime is closed.
func OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if s := currentScope(); s != nil {
		s.add(fn)
		return
	}

	rt := Current()
	rt.logger.Debug("cleanup registered outside component scope")
	rt.root.add(fn)
}

// OnScopeCleanup registers fn with the innermost component scope and
// reports whether one was active. Unlike OnCleanup it never falls back to
// the runtime root, so subscriptions created while flushing do not pile up
// there.
func OnScopeCleanup(fn func()) bool {
	if s := currentScope(); s != nil && fn != nil {
		s.add(fn)
		return true
	}
	return false
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// add appends fn. A disposed scope runs fn immediately instead.
func (s *Scope) add(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Len returns the number of registered cleanups.
func (s *Scope) Len() int {
	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	return len(s.cleanups)
}

// Disposed reports whether the scope's cleanups have run.
func (s *Scope) Disposed() bool {
	return s.disposed.Load()
}

// Dispose runs every cleanup in registration order. Only the first call
// does anything.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for _, fn := range cleanups {
		fn()
	}
}

// Drain returns a callback that disposes the scope. The callback can be
// invoked any number of times; the cleanups run once.
func (s *Scope) Drain() func() {
	var done atomic.Bool
	return func() {
		if done.Swap(true) {
			return
		}
		s.Dispose()
	}
}
