package reactive

import (
	"errors"
	"sync"
	"time"
)

// Effect runs fn after every notification from any of sources. With no
// sources, fn runs once during the next Flush of the current runtime.
//
// Created during a component render, the effect is cancelled with that
// component.
func Effect(fn func(), sources ...Source) *Subscription {
	if len(sources) == 0 {
		sub := Listen(fn)
		Current().sched.deferCall(sub.Notify)
		OnScopeCleanup(sub.Cancel)
		return sub
	}

	sub := Listen(fn, sources...)
	OnScopeCleanup(sub.Cancel)
	return sub
}

// Interval posts fn to the current runtime every d until the returned stop
// function is called or the runtime is closed. Each tick runs as its own
// execution unit on the runtime's loop. Ticks that find the task queue full
// are skipped.
//
// stop is registered with OnCleanup, so an interval started during a
// component render ends when that component is disposed.
func Interval(d time.Duration, fn func()) (stop func()) {
	rt := Current()
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	var once sync.Once
	stop = func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := rt.Post(fn); errors.Is(err, ErrRuntimeClosed) {
					stop()
					return
				}
			case <-done:
				return
			case <-rt.Done():
				stop()
				return
			}
		}
	}()

	OnCleanup(stop)
	return stop
}
