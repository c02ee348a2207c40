// Package demo is the application served by `tide serve`: a button that
// shows and hides a ticking timer.
package demo

import (
	"log/slog"
	"time"

	"github.com/vango-dev/tide/el"
	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/reactive"
)

// DefaultEvery is the timer period when none is configured.
const DefaultEvery = time.Second

// Options configures App.
type Options struct {
	// Every is the timer period.
	Every time.Duration

	Logger *slog.Logger
}

// TimerProps configures Timer.
type TimerProps struct {
	Every time.Duration

	// Count, when set, is the cell the timer increments. Otherwise the
	// timer starts its own at zero.
	Count *reactive.Cell[int]

	Logger *slog.Logger
}

// Timer counts up once per period while mounted. Disposing it stops the
// interval.
var Timer = reactive.Component(func(p TimerProps) *dom.Node {
	count := p.Count
	if count == nil {
		count = reactive.NewCell(0)
	}
	every := p.Every
	if every <= 0 {
		every = DefaultEvery
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stop := reactive.Interval(every, func() {
		count.Update(func(n int) int { return n + 1 })
	})
	reactive.OnCleanup(func() {
		stop()
		logger.Debug("timer stopped", "count", count.Read())
	})

	return el.Div(el.Class("timer"), count)
})

// App returns the root content of a session.
func App(opts Options) func() any {
	return func() any {
		shown := reactive.NewCell(false)

		label := reactive.Derive(func() string {
			if shown.Read() {
				return "hide"
			}
			return "show"
		}, shown)

		timer := reactive.Derive(func() any {
			if shown.Read() {
				return Timer(TimerProps{Every: opts.Every, Logger: opts.Logger})
			}
			return ""
		}, shown)

		return el.Div(
			el.Class("app"),
			el.Button(
				el.AriaPressed(shown),
				el.OnClick(func() { shown.Update(func(v bool) bool { return !v }) }),
				label,
			),
			timer,
		)
	}
}
