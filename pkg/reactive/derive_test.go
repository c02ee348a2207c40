package reactive

import (
	"strings"
	"testing"
)

// A derived sum follows a write to one of its sources after the flush.
func TestDeriveSum(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		a := NewCell(1)
		b := NewCell(2)
		cond := Derive(func() int { return a.Read() + b.Read() }, a, b)

		if got := cond.Read(); got != 3 {
			t.Fatalf("initial Read() = %d, want 3", got)
		}

		a.Write(5)
		mustFlush(t, rt)
		if got := cond.Read(); got != 7 {
			t.Errorf("Read() after write = %d, want 7", got)
		}
	})
}

func TestDeriveComputesOnConstruction(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		runs := 0
		Derive(func() int {
			runs++
			return 0
		})
		if runs != 1 {
			t.Errorf("compute ran %d times on construction, want 1", runs)
		}
	})
}

func TestDeriveRecomputesPerSource(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		a := NewCell(0)
		b := NewCell(0)
		runs := 0
		Derive(func() int {
			runs++
			return a.Read() + b.Read()
		}, a, b)
		runs = 0

		a.Write(1)
		b.Write(1)
		mustFlush(t, rt)

		if runs != 2 {
			t.Errorf("compute ran %d times, want 2 (no cross-source dedupe)", runs)
		}
	})
}

func TestDeriveEqualResultDoesNotNotify(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		n := NewCell(2)
		parity := Derive(func() bool { return n.Read()%2 == 0 }, n)
		calls := 0
		parity.OnChange(func() { calls++ })

		n.Write(4)
		mustFlush(t, rt)
		if calls != 0 {
			t.Errorf("equal recomputation notified %d times", calls)
		}

		n.Write(5)
		mustFlush(t, rt)
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
		if parity.Read() {
			t.Error("parity should be false for 5")
		}
	})
}

func TestDeriveIgnoresUndeclaredReads(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		declared := NewCell(1)
		hidden := NewCell(10)
		sum := Derive(func() int { return declared.Read() + hidden.Read() }, declared)

		hidden.Write(20)
		mustFlush(t, rt)
		if sum.Read() != 11 {
			t.Errorf("undeclared dependency triggered recompute, got %d", sum.Read())
		}

		declared.Write(2)
		mustFlush(t, rt)
		if sum.Read() != 22 {
			t.Errorf("Read() = %d, want 22", sum.Read())
		}
	})
}

func TestDeriveChain(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		name := NewCell("ada")
		upper := Derive(func() string { return strings.ToUpper(name.Read()) }, name)
		greeting := Derive(func() string { return "hello " + upper.Read() }, upper)

		name.Write("grace")
		mustFlush(t, rt)

		if got := greeting.Read(); got != "hello GRACE" {
			t.Errorf("greeting = %q, want %q", got, "hello GRACE")
		}
	})
}

func TestDeriveDisposesPreviousValue(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		show := NewCell(true)
		var made []*disposeCounter
		counts := make([]int, 0, 4)

		view := Derive(func() Disposable {
			counts = append(counts, 0)
			d := &disposeCounter{count: &counts[len(counts)-1]}
			made = append(made, d)
			return d
		}, show)

		show.Write(false)
		mustFlush(t, rt)
		show.Write(true)
		mustFlush(t, rt)

		if len(made) != 3 {
			t.Fatalf("expected 3 computed values, got %d", len(made))
		}
		if counts[0] != 1 || counts[1] != 1 {
			t.Errorf("previous values should be disposed once each, got %v", counts)
		}
		if counts[2] != 0 {
			t.Errorf("current value must stay live, disposed %d times", counts[2])
		}
		if view.Read() != Disposable(made[2]) {
			t.Error("Read() should return the latest value")
		}
	})
}

func TestDeriveKeepsIdenticalValueLive(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		trigger := NewCell(0)
		count := 0
		m := NewMaterial("same", func() { count++ })
		Derive(func() *Material[string] { return m }, trigger)

		trigger.Write(1)
		mustFlush(t, rt)

		if count != 0 {
			t.Errorf("returning the same material again must not dispose it, disposed %d", count)
		}
	})
}

func TestDeriveDisposesRejectedEqualValue(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		trigger := NewCell(0)
		disposed := map[int]int{}
		n := 0
		d := Derive(func() *Material[int] {
			n++
			id := n
			return NewMaterial(0, func() { disposed[id]++ })
		}, trigger).WithEquals(func(a, b *Material[int]) bool {
			return a.Value() == b.Value()
		})

		trigger.Write(1)
		mustFlush(t, rt)

		if disposed[1] != 0 {
			t.Error("stored value must stay live")
		}
		if disposed[2] != 1 {
			t.Errorf("rejected equal value should be disposed once, got %d", disposed[2])
		}
		if d.Read().Value() != 0 {
			t.Error("unexpected stored value")
		}
	})
}

func TestDeriveDispose(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		src := NewCell(0)
		runs := 0
		count := 0
		d := Derive(func() *Material[int] {
			runs++
			return NewMaterial(src.Read(), func() { count++ })
		}, src)

		d.Dispose()
		d.Dispose()
		if count != 1 {
			t.Errorf("Dispose should release the current value once, got %d", count)
		}
		if !d.Disposed() {
			t.Error("Disposed() = false")
		}

		src.Write(1)
		mustFlush(t, rt)
		if runs != 1 {
			t.Errorf("disposed derived value recomputed, runs = %d", runs)
		}
	})
}

func TestDeriveReentryPanics(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		src := NewCell(0)
		var d *Derived[int]
		reenter := false
		d = Derive(func() int {
			if reenter {
				d.recompute()
			}
			return src.Read()
		}, src)

		reenter = true
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic on re-entrant recompute")
			}
			if msg, ok := r.(string); !ok || !strings.Contains(msg, "E006") {
				t.Errorf("unexpected panic value %v", r)
			}
		}()
		d.recompute()
	})
}

func TestDeriveSelfWriteHitsFlushBudget(t *testing.T) {
	rt := New(WithMaxRounds(10))
	defer rt.Close()

	WithRuntime(rt, func() {
		n := NewCell(0)
		Derive(func() int {
			v := n.Read()
			n.Write(v + 1)
			return v
		}, n)

		err := rt.Flush()
		if err == nil {
			t.Fatal("expected ErrFlushBudget for a self-writing derived value")
		}
		if rt.Pending() != 0 {
			t.Errorf("budget overrun should drop pending work, pending = %d", rt.Pending())
		}
	})
}

func TestDeriveCreatedInComponentIsDisposedWithIt(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		src := NewCell(0)
		runs := 0
		comp := Component(func(struct{}) *Derived[int] {
			return Derive(func() int {
				runs++
				return src.Read()
			}, src)
		})

		m := comp(struct{}{})
		m.Dispose()

		src.Write(1)
		mustFlush(t, rt)
		if runs != 1 {
			t.Errorf("derived value outlived its component, runs = %d", runs)
		}
		if !m.Value().Disposed() {
			t.Error("derived value should be disposed with the component")
		}
	})
}
