// Package handler provides HTTP request handlers for the product API.
package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/apperr"
	"github.com/vyrodovalexey/product-api/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// ServiceName is reported by the banner and the endpoint catalog.
const ServiceName = "Product API"

// readyTimeout bounds the store ping made by the readiness probe.
const readyTimeout = 2 * time.Second

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// Endpoint describes one route in the endpoint catalog.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Auth        bool   `json:"auth"`
}

// Catalog is the machine-readable API description served on GET /api.
type Catalog struct {
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Endpoints []Endpoint `json:"endpoints"`
}

// catalog lists the routes registered by RegisterRoutes. Auth flags are
// resolved per handler from the auth scope.
func (h *RESTHandler) catalog() []Endpoint {
	return []Endpoint{
		{http.MethodGet, "/", "Service banner", false},
		{http.MethodGet, "/api", "Endpoint catalog", false},
		{http.MethodGet, "/health", "Liveness probe", false},
		{http.MethodGet, "/ready", "Readiness probe", false},
		{http.MethodGet, "/api/products", "List products with category, inStock, page and limit", h.protectReads},
		{http.MethodGet, "/api/products/search", "Search products by name (q)", h.protectReads},
		{http.MethodGet, "/api/products/stats", "Product statistics by category", h.protectReads},
		{http.MethodGet, "/api/products/{id}", "Get a product", h.protectReads},
		{http.MethodPost, "/api/products", "Create a product", true},
		{http.MethodPut, "/api/products/{id}", "Update a product", true},
		{http.MethodDelete, "/api/products/{id}", "Delete a product", true},
	}
}

// Root handles GET / with a plain text banner.
func (h *RESTHandler) Root(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(ServiceName + " " + Version + " is running\n"))
	return err
}

// API handles GET /api with the endpoint catalog.
func (h *RESTHandler) API(w http.ResponseWriter, _ *http.Request) error {
	apperr.WriteJSON(w, http.StatusOK, model.NewSuccessResponse(Catalog{
		Name:      ServiceName,
		Version:   Version,
		Endpoints: h.catalog(),
	}))
	return nil
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) error {
	apperr.WriteJSON(w, http.StatusOK, model.NewSuccessResponse(HealthResponse{
		Status:  "healthy",
		Version: Version,
	}))
	return nil
}

// ReadyCheck handles GET /ready requests. It reports 503 while the store is
// unreachable.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store not ready", zap.Error(err))
		apperr.WriteJSON(w, http.StatusServiceUnavailable, model.APIResponse[ReadyResponse]{
			Success: false,
			Data:    ReadyResponse{Status: "not ready"},
		})
		return nil
	}

	apperr.WriteJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
	return nil
}

// NotFound answers unmatched routes with the list of available endpoints.
func (h *RESTHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("route not found",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	endpoints := h.catalog()
	list := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		list = append(list, e.Method+" "+e.Path)
	}

	apperr.WriteJSON(w, http.StatusNotFound, model.ErrorResponse{
		Success:   false,
		Message:   apperr.MsgRouteNotFound,
		Endpoints: list,
	})
}
