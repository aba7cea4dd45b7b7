package demo

import (
	"fmt"
	"runtime"

	"webserver/pkg/mvc"
	"webserver/pkg/store"
)

type Stats struct {
	Actions    int    `json:"actions"`
	Users      int    `json:"users"`
	Avatars    int    `json:"avatars"`
	Goroutines int    `json:"goroutines"`
	RequestID  string `json:"request_id"`
}

type Admin struct {
	mvc.Base
	store    *store.Store
	registry func() *mvc.Registry
}

func adminController(d *Deps) mvc.ControllerDef {
	return mvc.Define("Admin", func() *Admin { return &Admin{store: d.Store, registry: d.Registry} }).
		Use(d.Guard...).
		Use(adminGuard(d)).
		Handle("Stats", mvc.Route{Method: "GET", Path: "/admin/stats"}, (*Admin).Stats).
		Build()
}

func (a *Admin) Stats(*mvc.Args) (mvc.Result, error) {
	users, err := a.store.List(userPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	avatars, err := a.store.List(avatarPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("count avatars: %w", err)
	}
	s := Stats{
		Users:      len(users),
		Avatars:    len(avatars),
		Goroutines: runtime.NumGoroutine(),
		RequestID:  a.ConnectionInfo.RequestID,
	}
	if a.registry != nil {
		if reg := a.registry(); reg != nil {
			s.Actions = reg.Len()
		}
	}
	return mvc.JSON(s), nil
}
