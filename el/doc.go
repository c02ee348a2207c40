// Package el provides the element builders for tide.
//
// Builders create live dom nodes directly. Arguments are attributes, event
// handlers or children; children go through mount.From, so cells, derived
// values and component results can be passed as is and stay patched.
//
// Typical usage:
//
//	import (
//	    "github.com/vango-dev/tide/pkg/reactive"
//	    . "github.com/vango-dev/tide/el"
//	)
//
//	count := reactive.NewCell(0)
//	Button(OnClick(func() { count.Update(inc) }), "clicked ", count)
package el
