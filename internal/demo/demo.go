// Package demo holds the controllers served by cmd/webserver. Together they
// exercise every binding strategy and result kind.
package demo

import (
	"webserver/pkg/hooks"
	"webserver/pkg/mvc"
	"webserver/pkg/store"
)

// Deps are the collaborators shared by the controllers.
type Deps struct {
	Store     *store.Store
	UploadDir string

	// Guard runs before every action, e.g. rate limiting and IP filtering.
	Guard []mvc.Hook

	AdminKeyHeader string
	AdminKeys      []string

	// Registry is reported by the admin stats action. It may be set after
	// the controllers are built.
	Registry func() *mvc.Registry
}

// Controllers returns every controller definition in registration order.
func Controllers(d *Deps) []mvc.ControllerDef {
	return []mvc.ControllerDef{
		homeController(d),
		usersController(d),
		sessionController(d),
		uploadsController(d),
		adminController(d),
	}
}

func adminGuard(d *Deps) mvc.Hook {
	return hooks.RequireKey(d.AdminKeyHeader, d.AdminKeys, nil)
}
