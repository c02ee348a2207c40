package mount

import (
	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/reactive"
)

// Root materializes the content returned by fn inside its own component
// scope. A Disposable result is disposed with the returned material.
// Must be called with a runtime bound.
func Root(fn func() any) *reactive.Material[*dom.Node] {
	return reactive.Func(func() *dom.Node {
		v := fn()
		if d, ok := v.(reactive.Disposable); ok {
			reactive.OnCleanup(d.Dispose)
		}
		return Materialize(From(v))
	})()
}
