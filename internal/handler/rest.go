package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/apperr"
	"github.com/vyrodovalexey/product-api/internal/auth"
	"github.com/vyrodovalexey/product-api/internal/middleware"
	"github.com/vyrodovalexey/product-api/internal/model"
	"github.com/vyrodovalexey/product-api/internal/store"
)

// Success messages for mutating product requests.
const (
	MsgProductCreated = "Product created successfully"
	MsgProductUpdated = "Product updated successfully"
	MsgProductDeleted = "Product deleted successfully"
)

// errMissingInput means a write route ran without the ValidateProduct
// interceptor.
var errMissingInput = errors.New("validated product input missing from request context")

// RESTHandler handles REST API requests for products.
type RESTHandler struct {
	store         store.Store
	logger        *zap.Logger
	translator    *apperr.Translator
	authenticator auth.Authenticator
	protectReads  bool
}

// NewRESTHandler creates a new RESTHandler instance. When protectReads is
// true the read-only product routes require authentication as well.
func NewRESTHandler(
	s store.Store,
	logger *zap.Logger,
	translator *apperr.Translator,
	authenticator auth.Authenticator,
	protectReads bool,
) *RESTHandler {
	return &RESTHandler{
		store:         s,
		logger:        logger,
		translator:    translator,
		authenticator: authenticator,
		protectReads:  protectReads,
	}
}

// RegisterRoutes registers the API routes with the router. The search and
// stats routes are registered before the {id} route so they are not taken
// for product IDs.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	authenticate := middleware.Authenticate(h.authenticator, h.logger)
	validate := middleware.ValidateProduct()

	var readGuards []middleware.Interceptor
	if h.protectReads {
		readGuards = append(readGuards, authenticate)
	}

	public := func(fn apperr.HandlerFunc) http.Handler {
		return middleware.Pipeline(h.translator, fn)
	}
	read := func(fn apperr.HandlerFunc) http.Handler {
		return middleware.Pipeline(h.translator, fn, readGuards...)
	}

	router.Handle("/", public(h.Root)).Methods(http.MethodGet)
	router.Handle("/api", public(h.API)).Methods(http.MethodGet)
	router.Handle("/health", public(h.HealthCheck)).Methods(http.MethodGet)
	router.Handle("/ready", public(h.ReadyCheck)).Methods(http.MethodGet)

	products := router.PathPrefix("/api/products").Subrouter()
	products.Handle("", read(h.ListProducts)).Methods(http.MethodGet)
	products.Handle("/search", read(h.SearchProducts)).Methods(http.MethodGet)
	products.Handle("/stats", read(h.ProductStats)).Methods(http.MethodGet)
	products.Handle("/{id}", read(h.GetProduct)).Methods(http.MethodGet)
	products.Handle("",
		middleware.Pipeline(h.translator, h.CreateProduct, authenticate, validate),
	).Methods(http.MethodPost)
	products.Handle("/{id}",
		middleware.Pipeline(h.translator, h.UpdateProduct, authenticate, validate),
	).Methods(http.MethodPut)
	products.Handle("/{id}",
		middleware.Pipeline(h.translator, h.DeleteProduct, authenticate),
	).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.NotFound)
}

// ListProducts handles GET /api/products requests.
func (h *RESTHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	filter := model.ProductFilter{
		Category: query.Get("category"),
		InStock:  model.ParseInStock(query.Get("inStock")),
	}
	page := model.NewPage(query.Get("page"), query.Get("limit"))

	products, err := h.store.Find(ctx, filter, page)
	if err != nil {
		return err
	}

	total, err := h.store.Count(ctx, filter)
	if err != nil {
		return err
	}

	apperr.WriteJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Count:   len(products),
		Total:   total,
		Page:    page.Number,
		Pages:   page.TotalPages(total),
		Data:    products,
	})
	return nil
}

// SearchProducts handles GET /api/products/search requests.
func (h *RESTHandler) SearchProducts(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		return apperr.Validation(apperr.MsgSearchQueryNeeded)
	}

	products, err := h.store.Search(r.Context(), q)
	if err != nil {
		return err
	}

	apperr.WriteJSON(w, http.StatusOK, model.SearchResponse{
		Success:     true,
		Count:       len(products),
		SearchQuery: q,
		Data:        products,
	})
	return nil
}

// ProductStats handles GET /api/products/stats requests.
func (h *RESTHandler) ProductStats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	byCategory, err := h.store.AggregateByCategory(ctx)
	if err != nil {
		return err
	}

	total, err := h.store.Count(ctx, model.ProductFilter{})
	if err != nil {
		return err
	}

	inStock := true
	inStockCount, err := h.store.Count(ctx, model.ProductFilter{InStock: &inStock})
	if err != nil {
		return err
	}

	apperr.WriteJSON(w, http.StatusOK, model.NewSuccessResponse(model.ProductStats{
		Summary:    model.NewStatsSummary(total, inStockCount),
		ByCategory: byCategory,
	}))
	return nil
}

// GetProduct handles GET /api/products/{id} requests.
func (h *RESTHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	product, err := h.store.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	apperr.WriteJSON(w, http.StatusOK, model.NewSuccessResponse(product))
	return nil
}

// CreateProduct handles POST /api/products requests.
func (h *RESTHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	input, ok := middleware.ProductInputFromContext(r.Context())
	if !ok {
		return apperr.Internal(apperr.MsgServerError, errMissingInput)
	}

	product, err := h.store.Create(r.Context(), input)
	if err != nil {
		return err
	}

	h.logger.Info("product created",
		zap.String("id", product.ID),
		zap.String("category", product.Category),
	)

	apperr.WriteJSON(w, http.StatusCreated, model.NewMessageResponse(MsgProductCreated, product))
	return nil
}

// UpdateProduct handles PUT /api/products/{id} requests.
func (h *RESTHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	input, ok := middleware.ProductInputFromContext(r.Context())
	if !ok {
		return apperr.Internal(apperr.MsgServerError, errMissingInput)
	}

	product, err := h.store.Update(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		return err
	}

	h.logger.Info("product updated", zap.String("id", product.ID))

	apperr.WriteJSON(w, http.StatusOK, model.NewMessageResponse(MsgProductUpdated, product))
	return nil
}

// DeleteProduct handles DELETE /api/products/{id} requests.
func (h *RESTHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	product, err := h.store.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	h.logger.Info("product deleted", zap.String("id", product.ID))

	apperr.WriteJSON(w, http.StatusOK, model.NewMessageResponse(MsgProductDeleted, product))
	return nil
}
