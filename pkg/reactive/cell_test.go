package reactive

import (
	"strings"
	"testing"
)

func TestCellEqualWriteIsNoop(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(0)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Write(0)
		if rt.Pending() != 0 {
			t.Errorf("equal write should not enqueue, pending = %d", rt.Pending())
		}
		mustFlush(t, rt)

		if calls != 0 {
			t.Errorf("expected 0 notifications for equal write, got %d", calls)
		}
	})
}

// Writing the current value is ignored; a new value notifies once, after the
// execution unit ends.
func TestCellNotifiesAfterUnit(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(0)
		calls := 0
		observed := -1
		c.OnChange(func() {
			calls++
			observed = c.Read()
		})

		c.Write(0)
		c.Write(1)
		if calls != 0 {
			t.Fatalf("notification must be deferred, got %d calls during write", calls)
		}

		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
		if observed != 1 {
			t.Errorf("subscriber observed %d, want 1", observed)
		}
	})
}

func TestCellCoalescesWrites(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell("a")
		var seen []string
		c.OnChange(func() { seen = append(seen, c.Read()) })

		c.Write("b")
		c.Write("c")
		c.Write("d")
		mustFlush(t, rt)

		if len(seen) != 1 || seen[0] != "d" {
			t.Errorf("expected single notification observing %q, got %v", "d", seen)
		}
	})
}

func TestCellWriteBackToOriginalStillNotifies(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(1)
		calls := 0
		c.OnChange(func() { calls++ })

		// Equality is checked at write time, not at notification time.
		c.Write(2)
		c.Write(1)
		mustFlush(t, rt)

		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
		if c.Read() != 1 {
			t.Errorf("Read() = %d, want 1", c.Read())
		}
	})
}

func TestCellCustomEquality(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell("Hello").WithEquals(strings.EqualFold)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Write("HELLO")
		mustFlush(t, rt)
		if calls != 0 {
			t.Errorf("case-insensitive equal write notified %d times", calls)
		}
		if c.Read() != "Hello" {
			t.Errorf("equal write must not store, got %q", c.Read())
		}

		c.Write("World")
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
	})
}

func TestCellPointerIdentity(t *testing.T) {
	type item struct{ n int }

	withRuntime(t, func(rt *Runtime) {
		a := &item{n: 1}
		c := NewCell(a)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Write(a)
		mustFlush(t, rt)
		if calls != 0 {
			t.Errorf("same pointer should be equal, got %d notifications", calls)
		}

		c.Write(&item{n: 1})
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("distinct pointer with equal contents should notify, got %d", calls)
		}
	})
}

func TestCellSliceIdentity(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		s := []int{1, 2}
		c := NewCell(s)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Write(s)
		mustFlush(t, rt)
		if calls != 0 {
			t.Errorf("same slice should be equal, got %d notifications", calls)
		}

		c.Write([]int{1, 2})
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("new slice should notify, got %d", calls)
		}
	})
}

func TestCellAnyHoldingFuncAlwaysChanges(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		fn := func() {}
		c := NewCell[any](fn)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Write(fn)
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("func values cannot be compared and should notify, got %d", calls)
		}
	})
}

func TestCellUpdate(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(10)
		calls := 0
		c.OnChange(func() { calls++ })

		c.Update(func(n int) int { return n + 5 })
		c.Update(func(n int) int { return n })
		mustFlush(t, rt)

		if c.Read() != 15 {
			t.Errorf("Read() = %d, want 15", c.Read())
		}
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
	})
}

func TestCellSubscribeDedupAndUnsubscribe(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(0)
		l := newTestListener()

		c.Subscribe(l)
		c.Subscribe(l)
		c.Write(1)
		mustFlush(t, rt)
		if l.getCount() != 1 {
			t.Errorf("duplicate subscribe should notify once, got %d", l.getCount())
		}

		c.Unsubscribe(l)
		c.Unsubscribe(l)
		c.Write(2)
		mustFlush(t, rt)
		if l.getCount() != 1 {
			t.Errorf("unsubscribed listener notified, count = %d", l.getCount())
		}
	})
}

func TestSubscriptionCancel(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		a := NewCell(0)
		b := NewCell(0)
		calls := 0
		sub := Listen(func() { calls++ }, a, b)

		a.Write(1)
		mustFlush(t, rt)

		sub.Cancel()
		sub.Cancel()
		if !sub.Cancelled() {
			t.Error("Cancelled() = false after Cancel")
		}

		a.Write(2)
		b.Write(2)
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("expected 1 call before cancel, got %d", calls)
		}
		if a.base.subscriberCount() != 0 || b.base.subscriberCount() != 0 {
			t.Error("Cancel should unsubscribe from every source")
		}
	})
}

func TestSubscriberMayUnsubscribeDuringNotify(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		c := NewCell(0)
		calls := 0
		var sub *Subscription
		sub = c.OnChange(func() {
			calls++
			sub.Cancel()
		})
		other := 0
		c.OnChange(func() { other++ })

		c.Write(1)
		mustFlush(t, rt)
		c.Write(2)
		mustFlush(t, rt)

		if calls != 1 {
			t.Errorf("self-cancelling subscriber ran %d times, want 1", calls)
		}
		if other != 2 {
			t.Errorf("other subscriber ran %d times, want 2", other)
		}
	})
}

func TestCellBindsCurrentRuntime(t *testing.T) {
	rt := New()
	defer rt.Close()

	var c *Cell[int]
	WithRuntime(rt, func() {
		c = NewCell(0)
	})
	if c.Runtime() != rt {
		t.Fatal("cell should bind the runtime active at construction")
	}

	calls := 0
	c.OnChange(func() { calls++ })
	c.Write(1)

	// Flushing another runtime does nothing for this cell.
	other := New()
	defer other.Close()
	if err := other.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if calls != 0 {
		t.Fatalf("foreign runtime delivered notification")
	}

	if err := rt.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}

func TestIdenticalStructWithInterfaceField(t *testing.T) {
	type holder struct{ v any }

	if identical(holder{v: []int{1}}, holder{v: []int{1}}) {
		t.Error("structs holding non-comparable values should not compare equal")
	}
	if !identical(holder{v: 1}, holder{v: 1}) {
		t.Error("structs holding equal comparable values should be identical")
	}
	if !identical(nil, nil) {
		t.Error("nil should be identical to nil")
	}
	if identical(nil, 0) {
		t.Error("nil should not be identical to 0")
	}
}
