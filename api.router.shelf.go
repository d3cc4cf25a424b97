package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupShelfRoutes injects the dashboard and shelves api endpoints.
func (api *APIHandler) SetupShelfRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	get(router, "/", m.public, api.Index)
	get(router, "/status", m.public, api.Status)
	get(router, "/dashboard", m.public, api.Dashboard)
	get(router, "/v1/shelves", m.public, api.GetAllShelves)
	get(router, "/v1/shelves/:name", m.public, api.GetOneShelf)
	get(router, "/v1/shelves-live", m.live, api.LiveShelves)
	return router
}
