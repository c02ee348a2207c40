// Package vtest provides a test harness for reactive components.
//
// A Harness owns a runtime and a document. Mount puts content into the
// document; Run, Click and Input execute units of work on the runtime and
// flush, exactly as a live session would.
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    h.Mount(func() any { return Counter() })
//
//	    h.ExpectContains("count: 0")
//	    h.Click(h.FindByText("button", "count: 0"))
//	    h.ExpectContains("count: 1")
//	}
//
// The harness closes its runtime when the test ends, disposing whatever
// was mounted.
//
// Free functions RenderToString and ExpectContains work on a single node
// without a harness.
package vtest
