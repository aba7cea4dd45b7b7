package mvc

import (
	"fmt"
	"strings"
)

// Kind is the declared type of an action parameter.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindInt64
	KindUint
	KindFloat
	KindBool
	KindBytes
	KindFile  // *FilePart
	KindFiles // []*FilePart
	KindModel // pointer to a JSON-decoded struct, see ModelParam
)

var kindNames = [...]string{
	KindString: "string",
	KindInt:    "int",
	KindInt64:  "int64",
	KindUint:   "uint",
	KindFloat:  "float64",
	KindBool:   "bool",
	KindBytes:  "[]byte",
	KindFile:   "file",
	KindFiles:  "[]file",
	KindModel:  "model",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// scalar reports whether values of this kind can come from a query or form
// string.
func (k Kind) scalar() bool {
	switch k {
	case KindString, KindInt, KindInt64, KindUint, KindFloat, KindBool, KindBytes:
		return true
	}
	return false
}

// Param describes one action parameter.
type Param struct {
	Name       string
	Kind       Kind
	Default    any
	HasDefault bool
	// FromBody marks the parameter as parsed from the raw request body
	// instead of the query string.
	FromBody bool

	model     func() any
	modelName string
}

// NewParam declares a parameter of a primitive, byte or file kind. Use
// ModelParam for JSON models.
func NewParam(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind}
}

// ModelParam declares a parameter bound by decoding JSON into a new T. The
// handler receives a *T, see ModelOf.
func ModelParam[T any](name string) Param {
	return Param{
		Name:      name,
		Kind:      KindModel,
		model:     func() any { return new(T) },
		modelName: fmt.Sprintf("%T", new(T)),
	}
}

// WithDefault returns a copy of p whose value is v when the request does not
// supply one.
func (p Param) WithDefault(v any) Param {
	p.Default = v
	p.HasDefault = true
	return p
}

// InBody returns a copy of p marked as body-sourced.
func (p Param) InBody() Param {
	p.FromBody = true
	return p
}

// TypeName describes the declared type for logs and violations.
func (p Param) TypeName() string {
	if p.Kind == KindModel && p.modelName != "" {
		return p.modelName
	}
	return p.Kind.String()
}

// Context is what the dispatcher injects into a fresh controller.
type Context struct {
	Request        *Request
	ConnectionInfo ConnInfo
	Cookies        *Cookies
}

// Controller is implemented by every controller type. Embedding Base is the
// usual way to satisfy it.
type Controller interface {
	Bind(ctx *Context)
}

// Base exposes the request, connection metadata and cookie bag to actions.
type Base struct {
	Request        *Request
	ConnectionInfo ConnInfo
	Cookies        *Cookies
}

// Bind implements Controller.
func (b *Base) Bind(ctx *Context) {
	b.Request = ctx.Request
	b.ConnectionInfo = ctx.ConnectionInfo
	b.Cookies = ctx.Cookies
}

// Handler is the uniform signature every action is reduced to.
type Handler func(c Controller, args *Args) (Result, error)

// Action describes one routable controller method.
type Action struct {
	Controller  string
	Name        string
	Method      string
	Path        string
	ContentType string
	Params      []Param
	Hooks       []Hook
	Handler     Handler

	// New builds a fresh controller for every dispatch.
	New func() Controller
}

func (a *Action) String() string {
	return a.Controller + "." + a.Name
}

// Route returns "METHOD /path".
func (a *Action) Route() string {
	return a.Method + " " + a.Path
}

func (a *Action) hasRoute() bool {
	return a.Method != "" || a.Path != ""
}

// ControllerDef groups the actions of one controller type.
type ControllerDef struct {
	Name    string
	New     func() Controller
	Actions []*Action
}

// Route is the declarative metadata attached to an action.
type Route struct {
	Method      string
	Path        string
	ContentType string
	Params      []Param
	Hooks       []Hook
}

// ControllerBuilder registers typed actions of controller type C.
type ControllerBuilder[C Controller] struct {
	def   ControllerDef
	hooks []Hook
}

// Define starts a controller definition. newFn must return a fresh
// controller on every call.
func Define[C Controller](name string, newFn func() C) *ControllerBuilder[C] {
	b := &ControllerBuilder[C]{def: ControllerDef{Name: name}}
	if newFn != nil {
		b.def.New = func() Controller { return newFn() }
	}
	return b
}

// Use attaches hooks that run before the hooks of every action registered
// afterwards.
func (b *ControllerBuilder[C]) Use(hooks ...Hook) *ControllerBuilder[C] {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Handle registers the action name served by fn on route. A nil fn or an
// empty route is kept as-is so Registry.Validate can report it.
func (b *ControllerBuilder[C]) Handle(name string, route Route, fn func(C, *Args) (Result, error)) *ControllerBuilder[C] {
	a := &Action{
		Controller:  b.def.Name,
		Name:        name,
		Method:      strings.ToUpper(route.Method),
		Path:        route.Path,
		ContentType: route.ContentType,
		Params:      append([]Param(nil), route.Params...),
		New:         b.def.New,
	}
	a.Hooks = append(append([]Hook(nil), b.hooks...), route.Hooks...)
	if fn != nil {
		a.Handler = func(c Controller, args *Args) (Result, error) {
			return fn(c.(C), args)
		}
	}
	b.def.Actions = append(b.def.Actions, a)
	return b
}

// Build returns the finished definition.
func (b *ControllerBuilder[C]) Build() ControllerDef {
	def := b.def
	def.Actions = append([]*Action(nil), b.def.Actions...)
	return def
}
