package router

import (
	"github.com/valyala/fasthttp"
)

// Router serves a handful of fixed internal endpoints and hands everything
// else to its fallback. Paths match exactly; the first registration wins.
type Router struct {
	routes   map[string][]route
	notFound fasthttp.RequestHandler
}

type route struct {
	path    string
	handler fasthttp.RequestHandler
}

// New constructs a new Router.
func New() *Router {
	return &Router{routes: make(map[string][]route)}
}

// Handler satisfies the fasthttp.Server handler interface.
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	if h := r.lookup(string(ctx.Method()), string(ctx.Path())); h != nil {
		h(ctx)
		return
	}
	if r.notFound != nil {
		r.notFound(ctx)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNotFound)
}

// GET registers a GET handler. HEAD requests are answered by it too.
func (r *Router) GET(path string, h fasthttp.RequestHandler) {
	r.add("GET", path, h)
	r.add("HEAD", path, h)
}

// NotFound registers a handler for unmatched routes.
func (r *Router) NotFound(h fasthttp.RequestHandler) {
	r.notFound = h
}

// Paths lists registered "METHOD /path" entries in registration order.
func (r *Router) Paths() []string {
	var out []string
	for _, rt := range r.routes["GET"] {
		out = append(out, "GET "+rt.path)
	}
	return out
}

func (r *Router) add(method, path string, h fasthttp.RequestHandler) {
	if path == "" {
		path = "/"
	}
	r.routes[method] = append(r.routes[method], route{path: path, handler: h})
}

func (r *Router) lookup(method, path string) fasthttp.RequestHandler {
	if path == "" {
		path = "/"
	}
	for _, rt := range r.routes[method] {
		if rt.path == path {
			return rt.handler
		}
	}
	return nil
}
