package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

// SetupOpsRoutes injects internal operations related endpoints.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	get(router, "/ops/configs", m.ops, api.GetConfigs)
	get(router, "/ops/stats", m.ops, api.GetStatistics)
	get(router, "/ops/maintenance", m.ops, api.Maintenance)
	get(router, "/ops/metrics", m.ops, api.GetMetrics)
	get(router, "/ops/debug/vars", m.ops, GetMemStats)
	get(router, "/ops/debug/gc", m.ops, api.RunGC)
	get(router, "/ops/debug/fos", m.ops, api.FreeOSMemory)

	if api.config.ProfilerEndpointsEnable {
		get(router, "/ops/debug/pprof/", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index)))
		get(router, "/ops/debug/pprof/profile", m.ops, api.GetCPUProfile)
		get(router, "/ops/debug/pprof/trace", m.ops, api.GetTraceProfile)
		get(router, "/ops/debug/pprof/symbol", m.ops, api.GetSymbol)
		get(router, "/ops/debug/pprof/cmdline", m.ops, api.GetCmdLine)
		get(router, "/ops/debug/pprof/heap", m.ops, api.OpsHandlerWrapper(pprof.Handler("heap")))
		get(router, "/ops/debug/pprof/allocs", m.ops, api.OpsHandlerWrapper(pprof.Handler("allocs")))
		get(router, "/ops/debug/pprof/goroutine", m.ops, api.OpsHandlerWrapper(pprof.Handler("goroutine")))
		get(router, "/ops/debug/pprof/threadcreate", m.ops, api.OpsHandlerWrapper(pprof.Handler("threadcreate")))
		get(router, "/ops/debug/pprof/block", m.ops, api.OpsHandlerWrapper(pprof.Handler("block")))
		get(router, "/ops/debug/pprof/mutex", m.ops, api.OpsHandlerWrapper(pprof.Handler("mutex")))
	}

	return router
}
