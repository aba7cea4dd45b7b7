// Package mvc dispatches one HTTP request to one controller action.
//
// Controllers are registered up front as ControllerDef values. Each action
// declares its route (method + exact path), an optional body content type,
// its parameters and any pre-action hooks. A Dispatcher looks up the action,
// runs its hooks, negotiates a binding strategy from the Content-Type header,
// binds arguments from the query string, form, JSON body or multipart parts,
// invokes the handler on a fresh controller and renders the Result.
//
// The package does not speak HTTP on the wire; see pkg/httpx for the
// fasthttp adapter.
package mvc
