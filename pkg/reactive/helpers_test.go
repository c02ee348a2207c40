package reactive

import (
	"sync"
	"testing"
)

// testListener counts notifications.
type testListener struct {
	id    uint64
	mu    sync.Mutex
	count int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) Notify() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// withRuntime runs fn with a fresh runtime bound to the test goroutine.
func withRuntime(t *testing.T, fn func(rt *Runtime)) {
	t.Helper()
	rt := New()
	t.Cleanup(rt.Close)
	WithRuntime(rt, func() {
		fn(rt)
	})
}

func mustFlush(t *testing.T, rt *Runtime) {
	t.Helper()
	if err := rt.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

// disposeCounter is a Disposable that counts Dispose calls.
type disposeCounter struct {
	name  string
	count *int
}

func (d *disposeCounter) Dispose() {
	*d.count++
}
