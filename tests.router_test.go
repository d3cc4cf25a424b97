package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noMiddlewares() *MiddlewareMap {
	return &MiddlewareMap{
		public: (&Middlewares{}).ChainRoute,
		live:   (&Middlewares{}).ChainRoute,
		ops:    (&Middlewares{}).ChainRoute,
	}
}

// TestSetupShelfRoutes ensures all expected shelf endpoints are implemented.
func TestSetupShelfRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"dashboard endpoint",
			httptest.NewRequest(http.MethodGet, "/dashboard", nil),
			true,
		},
		{
			"fetch all shelves endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/shelves", nil),
			true,
		},
		{
			"fetch all shelves endpoint with slash",
			httptest.NewRequest(http.MethodGet, "/v1/shelves/", nil),
			true,
		},
		{
			"fetch single shelf endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/shelves/Shelf%201", nil),
			true,
		},
		{
			"create shelf endpoint",
			httptest.NewRequest(http.MethodPost, "/v1/shelves", nil),
			false,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/v1", nil),
			false,
		},
		{
			"invalid shelves endpoint",
			httptest.NewRequest(http.MethodGet, "/shelves", nil),
			false,
		},
	}

	api := newTestAPIHandler(&Config{}, newTestBoardService(t))
	router := httprouter.New()
	api.SetupShelfRoutes(router, noMiddlewares())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
				assert.NotEqual(t, 405, w.Code)
			} else {
				assert.Contains(t, []int{404, 405}, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"fetch configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"fetch stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"maintenance mode endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=disable", nil),
			true,
		},
		{
			"metrics endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/metrics", nil),
			true,
		},
		{
			"memory stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil),
			true,
		},
		{
			"invalid ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops", nil),
			false,
		},
		{
			"unknown ops endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/unknown", nil),
			false,
		},
		{
			"disabled profiler endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
	}

	api := newTestAPIHandler(&Config{ProfilerEndpointsEnable: false}, &MockShelfService{})
	router := httprouter.New()
	api.SetupOpsRoutes(router, noMiddlewares())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only served once enabled
// and unknown routes get the json not found response.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name   string
		config *Config
		path   string
		code   int
	}{
		{"ops disabled", &Config{}, "/ops/stats", http.StatusNotFound},
		{"ops enabled", &Config{OpsEndpointsEnable: true}, "/ops/stats", http.StatusOK},
		{"profiler enabled", &Config{OpsEndpointsEnable: true, ProfilerEndpointsEnable: true}, "/ops/debug/pprof/cmdline", http.StatusOK},
		{"swagger ui", &Config{}, "/swagger/index.html", http.StatusOK},
		{"unknown route", &Config{}, "/v2/shelves", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(tc.config, &MockShelfService{})
			router := api.SetupRoutes(httprouter.New(), noMiddlewares())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

// TestShelfRouteUnescapesName ensures a percent-encoded shelf name in the
// path reaches the handler decoded.
func TestShelfRouteUnescapesName(t *testing.T) {
	api := newTestAPIHandler(&Config{}, newTestBoardService(t))
	router := api.SetupRoutes(httprouter.New(), noMiddlewares())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/shelves/Shelf%201", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data Shelf `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ShelfName("Shelf 1"), resp.Data.Name)
	assert.Equal(t, 3, resp.Data.Copies)
}
