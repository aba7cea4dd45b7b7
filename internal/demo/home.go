package demo

import (
	"html"
	"strings"

	"webserver/pkg/mvc"
)

type Home struct {
	mvc.Base
}

func homeController(d *Deps) mvc.ControllerDef {
	return mvc.Define("Home", func() *Home { return &Home{} }).
		Use(d.Guard...).
		Handle("Index", mvc.Route{Method: "GET", Path: "/"}, (*Home).Index).
		Handle("Hello", mvc.Route{
			Method: "GET",
			Path:   "/hello",
			Params: []mvc.Param{mvc.NewParam("name", mvc.KindString).WithDefault("there")},
		}, (*Home).Hello).
		Build()
}

func (h *Home) Index(*mvc.Args) (mvc.Result, error) {
	var b strings.Builder
	b.WriteString("<!doctype html><title>webserver</title><h1>webserver</h1>")
	if user, ok := h.Request.Cookie(sessionCookie); ok {
		b.WriteString("<p>signed in as " + html.EscapeString(user) + "</p>")
	}
	b.WriteString(`<ul><li><a href="/hello?name=World">/hello</a></li><li><a href="/users">/users</a></li></ul>`)
	return mvc.HTML(b.String()), nil
}

func (h *Home) Hello(args *mvc.Args) (mvc.Result, error) {
	return mvc.Text("Hello, " + args.String("name")), nil
}
