package mvc

import (
	"go/token"
	"net/http"
	"strings"

	"webserver/pkg/logger"
)

// Registry is the flattened, read-only table of actions. It is built once
// before serving and safe for concurrent lookups afterwards.
type Registry struct {
	actions []*Action
	routes  map[string]map[string]*Action // method -> path -> first action
}

// NewRegistry flattens defs in declaration order.
func NewRegistry(defs ...ControllerDef) *Registry {
	r := &Registry{routes: make(map[string]map[string]*Action)}
	for _, def := range defs {
		for _, a := range def.Actions {
			if a == nil {
				continue
			}
			if a.Controller == "" {
				a.Controller = def.Name
			}
			if a.New == nil {
				a.New = def.New
			}
			r.actions = append(r.actions, a)
			if a.Handler == nil || a.Method == "" || a.Path == "" {
				continue
			}
			byPath := r.routes[a.Method]
			if byPath == nil {
				byPath = make(map[string]*Action)
				r.routes[a.Method] = byPath
			}
			if _, taken := byPath[a.Path]; !taken {
				byPath[a.Path] = a
			}
		}
	}
	return r
}

// Actions returns every registered action in registration order.
func (r *Registry) Actions() []*Action {
	out := make([]*Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int { return len(r.actions) }

// Lookup returns the first action registered for method and path. Both are
// matched exactly.
func (r *Registry) Lookup(method, path string) (*Action, bool) {
	a, ok := r.routes[method][path]
	return a, ok
}

// Validate reports every configuration violation at once. Suspicious but
// workable setups are only logged.
func (r *Registry) Validate() error {
	cerr := &ConfigError{}
	seen := make(map[string]*Action)
	for _, a := range r.actions {
		validateAction(cerr, a)

		if a.Handler == nil || !a.hasRoute() {
			continue
		}
		key := a.Route()
		if first, dup := seen[key]; dup {
			logger.Warn("duplicate_route", "route", key, "action", a.String(), "served_by", first.String())
			continue
		}
		seen[key] = a
	}
	return cerr.Err()
}

func validateAction(cerr *ConfigError, a *Action) {
	ctrl, name := a.Controller, a.Name
	switch {
	case a.Handler != nil && !a.hasRoute():
		cerr.Add(ctrl, name, "returns a result but declares no route")
		return
	case a.Handler == nil && a.hasRoute():
		cerr.Add(ctrl, name, "declares route %s but has no handler", a.Route())
		return
	case a.Handler == nil:
		cerr.Add(ctrl, name, "has neither a handler nor a route")
		return
	}

	if !token.IsExported(name) {
		cerr.Add(ctrl, name, "action name must be exported")
	}
	if a.New == nil {
		cerr.Add(ctrl, name, "controller has no factory")
	}
	if a.Method == "" {
		cerr.Add(ctrl, name, "route has no HTTP method")
	}
	if !strings.HasPrefix(a.Path, "/") {
		cerr.Add(ctrl, name, "route path %q must start with '/'", a.Path)
	}
	if a.ContentType != "" {
		if _, ok := strategyFor(a.ContentType); !ok {
			cerr.Add(ctrl, name, "unsupported content type %q", a.ContentType)
		}
		if a.Method == http.MethodGet {
			cerr.Add(ctrl, name, "GET action cannot require content type %q", a.ContentType)
		}
	}

	names := make(map[string]bool, len(a.Params))
	bodyParams := 0
	for _, p := range a.Params {
		lname := strings.ToLower(p.Name)
		switch {
		case p.Name == "":
			cerr.Add(ctrl, name, "parameter without a name")
		case names[lname]:
			cerr.Add(ctrl, name, "parameter %q declared twice", p.Name)
		}
		names[lname] = true
		if p.Kind == KindModel && p.model == nil {
			cerr.Add(ctrl, name, "model parameter %q must be declared with ModelParam", p.Name)
		}
		if p.HasDefault && !defaultMatches(p.Kind, p.Default) {
			cerr.Add(ctrl, name, "default for %q is %T, want %s", p.Name, p.Default, p.TypeName())
		}
		if p.FromBody {
			bodyParams++
		}
	}
	if a.ContentType == ContentJSON && len(a.Params) > 1 && bodyParams != 1 {
		logger.Warn("ambiguous_json_binding", "action", a.String(), "params", len(a.Params), "body_params", bodyParams)
	}
}
