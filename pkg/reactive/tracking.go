package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for a goroutine.
type trackingContext struct {
	// runtime is the Runtime new cells bind to. nil means Default().
	runtime *Runtime

	// scopes is the stack of component scopes being rendered. The top
	// receives OnCleanup registrations.
	scopes []*Scope
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " stack header.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating it on first use.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// releaseTrackingContext drops the goroutine's context once it holds nothing,
// so short-lived goroutines do not leak entries.
func releaseTrackingContext(ctx *trackingContext) {
	if ctx.runtime == nil && len(ctx.scopes) == 0 {
		trackingContexts.Delete(getGoroutineID())
	}
}

// Current returns the runtime bound to the current goroutine, or Default().
func Current() *Runtime {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		if rt := ctx.(*trackingContext).runtime; rt != nil {
			return rt
		}
	}
	return Default()
}

// WithRuntime runs fn with rt bound to the current goroutine. Cells created
// inside fn belong to rt.
func WithRuntime(rt *Runtime, fn func()) {
	ctx := getTrackingContext()
	old := ctx.runtime
	ctx.runtime = rt
	defer func() {
		ctx.runtime = old
		releaseTrackingContext(ctx)
	}()
	fn()
}

// currentScope returns the innermost component scope, or nil.
func currentScope() *Scope {
	ctx, ok := trackingContexts.Load(getGoroutineID())
	if !ok {
		return nil
	}
	scopes := ctx.(*trackingContext).scopes
	if len(scopes) == 0 {
		return nil
	}
	return scopes[len(scopes)-1]
}

// pushScope makes s the innermost scope.
func pushScope(s *Scope) {
	ctx := getTrackingContext()
	ctx.scopes = append(ctx.scopes, s)
}

// popScope removes s and anything pushed above it.
func popScope(s *Scope) {
	ctx := getTrackingContext()
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if ctx.scopes[i] == s {
			ctx.scopes = ctx.scopes[:i]
			break
		}
	}
	releaseTrackingContext(ctx)
}
