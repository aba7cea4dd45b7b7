package mvc

// Hook runs before an action is bound. Returning a non-nil Result
// short-circuits the dispatch and that result is rendered instead.
type Hook interface {
	Handle(r *Request) Result
}

// HookFunc adapts a function to Hook.
type HookFunc func(r *Request) Result

func (f HookFunc) Handle(r *Request) Result { return f(r) }

// RunHooks evaluates the action's hooks in declaration order and returns the
// first result produced, or nil.
func RunHooks(a *Action, r *Request) Result {
	for _, h := range a.Hooks {
		if h == nil {
			continue
		}
		if res := h.Handle(r); !isNilResult(res) {
			return res
		}
	}
	return nil
}
