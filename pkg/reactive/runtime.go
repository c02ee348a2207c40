package reactive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the default capacity of a runtime's task queue.
const DefaultQueueSize = 256

// Runtime owns a scheduler, a root cleanup scope and a task queue.
// A runtime is single-threaded: its subscribers, derived recomputations and
// tree patches all run on whichever goroutine calls Flush or Loop.
type Runtime struct {
	id     uint64
	logger *slog.Logger
	sched  *scheduler

	// root collects cleanups registered outside any component scope.
	root *Scope

	tasks     chan func()
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	hooksMu sync.RWMutex
	hooks   []func(FlushStats)

	maxRounds int
	queueSize int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithMaxRounds sets the notification round budget for a single Flush.
func WithMaxRounds(n int) Option {
	return func(rt *Runtime) {
		rt.maxRounds = n
	}
}

// WithQueueSize sets the capacity of the task queue used by Post.
func WithQueueSize(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.queueSize = n
		}
	}
}

// WithFlushHook registers fn to run after every outermost Flush that did
// any work.
func WithFlushHook(fn func(FlushStats)) Option {
	return func(rt *Runtime) {
		rt.hooks = append(rt.hooks, fn)
	}
}

// New creates a runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		id:        nextID(),
		logger:    slog.Default(),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.logger = rt.logger.With("runtime", rt.id)
	rt.sched = newScheduler(rt.maxRounds)
	rt.sched.onPanic = func(r any, stack []byte) {
		rt.logger.Error("subscriber panic",
			"panic", r,
			"stack", string(stack))
	}
	rt.root = newScope()
	rt.tasks = make(chan func(), rt.queueSize)
	rt.done = make(chan struct{})
	return rt
}

var defaultRuntime = sync.OnceValue(func() *Runtime {
	return New()
})

// Default returns the process-wide runtime used by goroutines that have not
// bound one with WithRuntime. Nothing flushes it automatically.
func Default() *Runtime {
	return defaultRuntime()
}

// Flush runs notification rounds on the current goroutine's runtime.
func Flush() error {
	return Current().Flush()
}

// ID returns the unique identifier for this runtime.
func (rt *Runtime) ID() uint64 {
	return rt.id
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// AddFlushHook registers fn to run after every outermost Flush that did
// any work.
func (rt *Runtime) AddFlushHook(fn func(FlushStats)) {
	rt.hooksMu.Lock()
	defer rt.hooksMu.Unlock()
	rt.hooks = append(rt.hooks, fn)
}

// Pending returns the number of queued notifications and deferred calls.
func (rt *Runtime) Pending() int {
	return rt.sched.size()
}

// Flush delivers every pending notification. Subscribers run with rt bound
// to the calling goroutine. A subscriber panic is recovered and logged, the
// remaining subscribers still run, and Flush returns an error wrapping
// ErrSubscriberPanic.
//
// Only one Flush runs at a time per runtime. A Flush that finds another in
// progress, whether from inside a subscriber or from a second goroutine,
// returns nil without delivering anything; the running Flush picks up the
// new writes. Runtimes are single-threaded, so flush from the goroutine
// that owns the runtime.
func (rt *Runtime) Flush() error {
	var (
		stats  FlushStats
		nested bool
	)
	WithRuntime(rt, func() {
		stats, nested = rt.sched.flush()
	})
	if nested || stats.Rounds == 0 {
		return nil
	}

	if errors.Is(stats.Err, ErrFlushBudget) {
		rt.logger.Error("flush budget exceeded",
			"rounds", stats.Rounds,
			"dropped", stats.Dropped)
	}

	rt.hooksMu.RLock()
	hooks := make([]func(FlushStats), len(rt.hooks))
	copy(hooks, rt.hooks)
	rt.hooksMu.RUnlock()

	for _, h := range hooks {
		h(stats)
	}
	return stats.Err
}

// Run executes fn as one execution unit: fn runs with rt bound, then
// pending notifications are flushed. A panic in fn, in a subscriber or in a
// flush hook is recovered, logged and returned as an error; a panicking
// task still has its writes flushed.
func (rt *Runtime) Run(fn func()) error {
	var taskErr, flushErr error
	WithRuntime(rt, func() {
		taskErr = rt.safeCall(fn)
	})
	if err := rt.safeCall(func() { flushErr = rt.Flush() }); err != nil {
		flushErr = err
	}
	if taskErr != nil {
		return taskErr
	}
	return flushErr
}

// safeCall runs fn with panic recovery.
func (rt *Runtime) safeCall(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("reactive: task panic: %v", r)
		}
	}()
	fn()
	return nil
}

// Post queues fn to run on the runtime's loop. Safe from any goroutine.
func (rt *Runtime) Post(fn func()) error {
	if rt.closed.Load() {
		return ErrRuntimeClosed
	}
	select {
	case rt.tasks <- fn:
		return nil
	case <-rt.done:
		return ErrRuntimeClosed
	default:
		rt.logger.Warn("task queue full, dropping task")
		return ErrQueueFull
	}
}

// Loop runs posted tasks until ctx is cancelled or the runtime is closed.
// Each task is run through Run, so it is followed by a Flush.
func (rt *Runtime) Loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.done:
			return nil
		case fn := <-rt.tasks:
			if err := rt.Run(fn); err != nil {
				rt.logger.Warn("execution unit failed", "error", err)
			}
		}
	}
}

// RunPending runs the tasks already queued by Post on the calling
// goroutine, each as its own execution unit, and returns how many ran. It
// does not wait for new tasks. Must not be used while Loop is running.
func (rt *Runtime) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-rt.tasks:
			if err := rt.Run(fn); err != nil {
				rt.logger.Warn("execution unit failed", "error", err)
			}
			n++
		default:
			return n
		}
	}
}

// Done returns a channel closed when the runtime is closed.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}

// Closed reports whether Close has been called.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

// Close stops the loop and runs cleanups registered outside component
// scopes. Idempotent.
func (rt *Runtime) Close() {
	rt.closeOnce.Do(func() {
		rt.closed.Store(true)
		close(rt.done)
		WithRuntime(rt, rt.root.Dispose)
	})
}
