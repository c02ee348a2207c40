package reactive

// Component wraps a render function. Every call of the returned function
// renders inside a fresh Scope and returns the result as a Material whose
// disposal runs the cleanups registered during that render, in registration
// order, exactly once.
//
// If render panics, the scope is popped, the cleanups registered so far run,
// and the panic continues unchanged.
//
// Example:
//
//	Timer := reactive.Component(func(p TimerProps) *dom.Node {
//	    stop := reactive.Interval(time.Second, func() { p.Count.Update(inc) })
//	    reactive.OnCleanup(stop)
//	    return el.Div(p.Count)
//	})
//	m := Timer(TimerProps{Count: reactive.NewCell(0)})
//	defer m.Dispose()
func Component[P, N any](render func(P) N) func(P) *Material[N] {
	return func(props P) *Material[N] {
		scope := BeginScope()
		completed := false
		defer func() {
			EndScope(scope)
			if !completed {
				scope.Dispose()
			}
		}()

		node := render(props)
		completed = true
		return NewMaterial(node, scope.Drain())
	}
}

// Func is Component for render functions without props.
func Func[N any](render func() N) func() *Material[N] {
	c := Component(func(struct{}) N { return render() })
	return func() *Material[N] {
		return c(struct{}{})
	}
}
