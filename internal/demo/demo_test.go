package demo

import (
	"strconv"
	"testing"
	"time"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/vtest"
)

// timerNode returns the mounted timer element, or nil.
func timerNode(h *vtest.Harness) *dom.Node {
	var found *dom.Node
	h.Document().Root().Walk(func(n *dom.Node) bool {
		if found != nil {
			return false
		}
		if class, _ := n.Attr("class"); class == "timer" {
			found = n
			return false
		}
		return true
	})
	return found
}

func timerCount(t *testing.T, h *vtest.Harness) int {
	t.Helper()
	node := timerNode(h)
	if node == nil {
		t.Fatal("timer is not mounted")
	}
	n, err := strconv.Atoi(node.Text())
	if err != nil {
		t.Fatalf("timer text %q: %v", node.Text(), err)
	}
	return n
}

func TestAppInitiallyHidden(t *testing.T) {
	h := vtest.New(t)
	h.Mount(App(Options{Every: time.Hour}))

	button := h.FindByText("button", "show")
	if button == nil {
		t.Fatalf("no show button in %s", h.HTML())
	}
	if _, ok := button.Attr("aria-pressed"); ok {
		t.Error("aria-pressed should be absent while hidden")
	}
	if timerNode(h) != nil {
		t.Error("timer should not be mounted initially")
	}
}

func TestAppToggleMountsAndDisposesTimer(t *testing.T) {
	h := vtest.New(t)
	h.Mount(App(Options{Every: 2 * time.Millisecond}))

	h.Click(h.FindByText("button", "show"))
	if h.FindByText("button", "hide") == nil {
		t.Fatalf("button label did not change: %s", h.HTML())
	}
	if got := timerCount(t, h); got != 0 {
		t.Errorf("timer starts at %d, want 0", got)
	}

	h.WaitFor(2*time.Second, func() bool { return timerCount(t, h) >= 2 })

	h.Click(h.FindByText("button", "hide"))
	if timerNode(h) != nil {
		t.Fatalf("timer still mounted after hide: %s", h.HTML())
	}
	h.ExpectContains(">show</button>")

	// A tick already in flight may still land; nothing is posted after.
	time.Sleep(5 * time.Millisecond)
	h.RunPending()
	time.Sleep(10 * time.Millisecond)
	if n := h.RunPending(); n != 0 {
		t.Errorf("%d ticks posted after the timer was disposed", n)
	}
}

func TestTimerSharedCount(t *testing.T) {
	h := vtest.New(t)
	var (
		count *reactive.Cell[int]
		timer *reactive.Material[*dom.Node]
	)
	h.Run(func() {
		count = reactive.NewCell(40)
		timer = Timer(TimerProps{Every: time.Millisecond, Count: count})
		_ = h.Document().AppendChild(timer.Value())
	})

	h.WaitFor(2*time.Second, func() bool { return count.Read() >= 42 })
	if got := timerCount(t, h); got != count.Read() {
		t.Errorf("rendered %d, cell holds %d", got, count.Read())
	}

	h.Run(timer.Dispose)
	time.Sleep(5 * time.Millisecond)
	h.RunPending()
	stopped := count.Read()
	time.Sleep(10 * time.Millisecond)
	h.RunPending()
	if count.Read() != stopped {
		t.Errorf("count moved from %d to %d after dispose", stopped, count.Read())
	}
}
