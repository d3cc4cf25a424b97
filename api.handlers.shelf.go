package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

//go:embed web/dashboard.html
var webFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(webFS, "web/dashboard.html"))

// DashboardPage is the data rendered by the dashboard template.
type DashboardPage struct {
	Title     string
	EmptyText string
	LivePath  string
	Shelves   []Shelf
}

// Index redirects to the shelves dashboard.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Shelves dashboard is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Dashboard renders one card per shelf with its books table.
func (api *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	page := DashboardPage{
		Title:     "Quản lý tủ sách",
		EmptyText: "Chưa có dữ liệu",
		LivePath:  "/v1/shelves-live",
		Shelves:   api.shelfService.Shelves(),
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	if err := dashboardTemplate.Execute(w, page); err != nil {
		api.logger.Error("failed to render dashboard", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllShelves godoc
// @Summary      List shelves
// @Description  Returns every shelf with its books grouped by barcode.
// @Tags         shelves
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]Shelf}
// @Router       /v1/shelves [get]
func (api *APIHandler) GetAllShelves(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	shelves := api.shelfService.Shelves()
	total := len(shelves)
	resp := GenericResponse(requestID, http.StatusOK, "All shelves fetched successfully.", &total, shelves)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneShelf godoc
// @Summary      Get a shelf
// @Description  Returns the books of a single shelf grouped by barcode.
// @Tags         shelves
// @Produce      json
// @Param        name  path      string  true  "Shelf name"
// @Success      200   {object}  APIResponse{data=Shelf}
// @Failure      404   {object}  APIError
// @Router       /v1/shelves/{name} [get]
func (api *APIHandler) GetOneShelf(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	name := ShelfName(ps.ByName("name"))
	shelf, err := api.shelfService.Shelf(name)
	if err == ErrShelfNotFound {
		api.logger.Error("shelf does not exist", zap.String("shelf.name", string(name)), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "shelf does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get shelf", zap.String("shelf.name", string(name)), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the shelf", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	resp := GenericResponse(requestID, http.StatusOK, "Shelf fetched successfully.", nil, shelf)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// LiveShelves upgrades the request to a websocket which receives the
// visible shelves right away and after each change.
func (api *APIHandler) LiveShelves(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := api.idsHandler.Generate(LiveClientIDPrefix)
	if err := api.hub.Serve(w, r, id, api.shelfService.Shelves); err != nil {
		api.logger.Info("live client ended", zap.String("request.id", requestID), zap.String("live.id", id), zap.Error(err))
	}
}

// NotFound returns a json response for undefined routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(
			map[string]string{
				"requestid": requestID,
				"message":   "route does not exist",
				"path":      r.Method + " " + r.URL.Path,
			},
		); err != nil {
			api.logger.Error("failed to send not found response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}
