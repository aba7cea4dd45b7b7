package mvc

import "strings"

// Args is the bound, ordered argument list of one action invocation.
// Parameters the request did not supply and that have no default are unset
// and read back as zero values.
type Args struct {
	params []Param
	values []any
	set    []bool
}

func newArgs(params []Param) *Args {
	a := &Args{
		params: params,
		values: make([]any, len(params)),
		set:    make([]bool, len(params)),
	}
	for i, p := range params {
		if p.HasDefault {
			a.values[i] = p.Default
			a.set[i] = true
		}
	}
	return a
}

func (a *Args) put(i int, v any) {
	a.values[i] = v
	a.set[i] = true
}

// Len returns the number of declared parameters.
func (a *Args) Len() int { return len(a.params) }

// Values returns the argument list in declaration order.
func (a *Args) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

// Index returns the position of the parameter called name, or -1. An exact
// match wins over a case-insensitive one.
func (a *Args) Index(name string) int {
	for i, p := range a.params {
		if p.Name == name {
			return i
		}
	}
	for i, p := range a.params {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// Value returns the argument at position i.
func (a *Args) Value(i int) (any, bool) {
	if i < 0 || i >= len(a.values) || !a.set[i] {
		return nil, false
	}
	return a.values[i], true
}

// Lookup returns the argument bound to the parameter called name.
func (a *Args) Lookup(name string) (any, bool) {
	return a.Value(a.Index(name))
}

// IsSet reports whether the parameter received a value or a default.
func (a *Args) IsSet(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

func (a *Args) String(name string) string { return argAs[string](a, name) }
func (a *Args) Int(name string) int       { return argAs[int](a, name) }
func (a *Args) Int64(name string) int64   { return argAs[int64](a, name) }
func (a *Args) Uint(name string) uint     { return argAs[uint](a, name) }
func (a *Args) Float(name string) float64 { return argAs[float64](a, name) }
func (a *Args) Bool(name string) bool     { return argAs[bool](a, name) }
func (a *Args) Bytes(name string) []byte  { return argAs[[]byte](a, name) }

func (a *Args) File(name string) *FilePart    { return argAs[*FilePart](a, name) }
func (a *Args) Files(name string) []*FilePart { return argAs[[]*FilePart](a, name) }

// ModelOf returns the decoded model bound to name.
func ModelOf[T any](a *Args, name string) (*T, bool) {
	v, ok := a.Lookup(name)
	if !ok {
		return nil, false
	}
	m, ok := v.(*T)
	return m, ok && m != nil
}

func argAs[T any](a *Args, name string) T {
	var zero T
	v, ok := a.Lookup(name)
	if !ok {
		return zero
	}
	t, ok := v.(T)
	if !ok {
		return zero
	}
	return t
}
