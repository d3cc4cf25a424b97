package main

import (
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
	_ "github.com/thanhyarn/rfid-shelf-client/docs"
)

// MiddlewareMap contains middlwares chain to use for
// public-facing, live feed and ops requests.
type MiddlewareMap struct {
	public RouteChain
	live   RouteChain
	ops    RouteChain
}

// RouteChain wraps a handle registered under the given route pattern.
type RouteChain func(h httprouter.Handle, path string) httprouter.Handle

// get registers a GET handle on path through the chain.
func get(router *httprouter.Router, path string, chain RouteChain, h httprouter.Handle) {
	router.GET(path, chain(h, path))
}

// SetupRoutes injects shelf and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	api.SetupShelfRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	get(router, "/swagger/*any", m.public, api.OpsHandlerWrapper(httpswagger.WrapHandler))
	return router
}
