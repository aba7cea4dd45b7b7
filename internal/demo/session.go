package demo

import (
	"strings"
	"time"

	"webserver/pkg/mvc"
)

const sessionCookie = "session"

type Session struct {
	mvc.Base
}

func sessionController(d *Deps) mvc.ControllerDef {
	return mvc.Define("Session", func() *Session { return &Session{} }).
		Use(d.Guard...).
		Handle("Login", mvc.Route{
			Method:      "POST",
			Path:        "/login",
			ContentType: mvc.ContentForm,
			Params: []mvc.Param{
				mvc.NewParam("user", mvc.KindString),
				mvc.NewParam("remember", mvc.KindBool).WithDefault(false),
				mvc.NewParam("next", mvc.KindString).WithDefault("/"),
			},
		}, (*Session).Login).
		Handle("Logout", mvc.Route{Method: "GET", Path: "/logout"}, (*Session).Logout).
		Handle("Whoami", mvc.Route{Method: "GET", Path: "/whoami"}, (*Session).Whoami).
		Build()
}

func (s *Session) Login(args *mvc.Args) (mvc.Result, error) {
	user := strings.TrimSpace(args.String("user"))
	if user == "" {
		return nil, mvc.BadRequest("user required")
	}
	ck := s.Cookies.Set(sessionCookie, user)
	ck.HTTPOnly = true
	ck.Secure = s.ConnectionInfo.TLS
	if args.Bool("remember") {
		ck.MaxAge = int((30 * 24 * time.Hour).Seconds())
	}
	return mvc.Redirect(safeNext(args.String("next"))), nil
}

func (s *Session) Logout(*mvc.Args) (mvc.Result, error) {
	s.Cookies.Expire(sessionCookie)
	return mvc.Redirect("/"), nil
}

func (s *Session) Whoami(*mvc.Args) (mvc.Result, error) {
	user, ok := s.Request.Cookie(sessionCookie)
	if !ok || user == "" {
		return mvc.Text("anonymous"), nil
	}
	return mvc.Text(user), nil
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
