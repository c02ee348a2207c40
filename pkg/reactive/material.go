package reactive

import "sync/atomic"

// Disposable is implemented by values that own resources released on
// removal from the live tree.
type Disposable interface {
	Dispose()
}

// Owned is a type-erased Material.
type Owned interface {
	Disposable
	Contents() any
}

// Material is a value bundled with a one-shot disposal callback.
// The holder of the live reference is responsible for disposing it.
type Material[T any] struct {
	value     T
	onDispose func()
	disposed  atomic.Bool
}

// NewMaterial wraps value with onDispose.
func NewMaterial[T any](value T, onDispose func()) *Material[T] {
	return &Material[T]{value: value, onDispose: onDispose}
}

// Value returns the wrapped value.
func (m *Material[T]) Value() T {
	return m.value
}

// Contents returns the wrapped value as any. Implements Owned.
func (m *Material[T]) Contents() any {
	return m.value
}

// Dispose runs the disposal callback. Later calls are no-ops.
func (m *Material[T]) Dispose() {
	if m == nil || m.disposed.Swap(true) {
		return
	}
	if m.onDispose != nil {
		m.onDispose()
	}
}

// Disposed reports whether Dispose has been called.
func (m *Material[T]) Disposed() bool {
	return m.disposed.Load()
}

// disposeValue disposes v when it carries the capability.
func disposeValue(v any) {
	if d, ok := v.(Disposable); ok {
		d.Dispose()
	}
}
