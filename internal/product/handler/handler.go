// Package handler provides HTTP handlers for product-related operations.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/product/service"
)

const WelcomeMessage = "Welcome to the Product Catalog API. Browse products at /api/products"

// ProductAPI defines HTTP handlers for product-related endpoints.
type ProductAPI interface {
	FindAll(w http.ResponseWriter, r *http.Request)
	Search(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	FindByID(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	DeleteByID(w http.ResponseWriter, r *http.Request)

	Welcome(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

type api struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewAPI creates a new instance of ProductAPI with the provided service.
func NewAPI(service service.ProductService, logger *slog.Logger) ProductAPI {
	return &api{
		service: service,
		logger:  logger.With("component", "api"),
	}
}

// messageResponse confirms a write and carries the affected product.
type messageResponse struct {
	Message string              `json:"message"`
	Product *service.ProductDto `json:"product"`
}

// FindAll lists products, optionally filtered by category and stock, one page at a time.
func (a *api) FindAll(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.findAll)(w, r)
}

func (a *api) findAll(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	query := r.URL.Query()

	filter := service.ListFilter{
		Category: query.Get("category"),
		Page:     parseIntOrDefault(query.Get("page"), service.DefaultPage),
		Limit:    parseIntOrDefault(query.Get("limit"), service.DefaultLimit),
	}
	if query.Has("inStock") {
		inStock := query.Get("inStock") == "true"
		filter.InStock = &inStock
	}

	mLogger.DebugContext(r.Context(), "Received request to list products", "filter", filter)
	page, err := a.service.FindAll(r.Context(), filter)
	if err != nil {
		return err
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(page.Products))
	respondJSON(w, mLogger, http.StatusOK, page)
	return nil
}

// Search finds products whose name or description contains the q parameter.
func (a *api) Search(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.search)(w, r)
}

func (a *api) search(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	q := r.URL.Query().Get("q")
	if q == "" {
		return producterrors.NewValidation(`Search query parameter "q" is required`)
	}

	result, err := a.service.Search(r.Context(), q)
	if err != nil {
		return err
	}
	mLogger.DebugContext(r.Context(), "Search completed", "query", q, "count", result.Count)
	respondJSON(w, mLogger, http.StatusOK, result)
	return nil
}

// Stats returns aggregate numbers about the catalog.
func (a *api) Stats(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.stats)(w, r)
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := a.service.Stats(r.Context())
	if err != nil {
		return err
	}
	respondJSON(w, loggerWithReqID(r, a.logger), http.StatusOK, stats)
	return nil
}

// FindByID retrieves a product by its ID.
func (a *api) FindByID(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.findByID)(w, r)
}

func (a *api) findByID(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	id := r.PathValue("id")

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := a.service.FindByID(r.Context(), id)
	if err != nil {
		return notFoundOr(err, id)
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	respondJSON(w, mLogger, http.StatusOK, found)
	return nil
}

// Create handles the creation of a new product. The body has already passed validation.
func (a *api) Create(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.create)(w, r)
}

func (a *api) create(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	var productCreateDto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&productCreateDto); err != nil {
		return producterrors.NewValidation(invalidBodyMessage)
	}

	newProduct, err := a.service.Create(r.Context(), productCreateDto)
	if err != nil {
		return err
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	respondJSON(w, mLogger, http.StatusCreated, messageResponse{Message: "Product created successfully", Product: newProduct})
	return nil
}

// Update applies the fields present in the body to an existing product.
func (a *api) Update(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.update)(w, r)
}

func (a *api) update(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	id := r.PathValue("id")

	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var patch service.ProductPatchDto
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return producterrors.NewValidation(invalidBodyMessage)
	}

	updated, err := a.service.Update(r.Context(), id, patch)
	if err != nil {
		return notFoundOr(err, id)
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	respondJSON(w, mLogger, http.StatusOK, messageResponse{Message: "Product updated successfully", Product: updated})
	return nil
}

// DeleteByID deletes a product by its ID and echoes the removed product.
func (a *api) DeleteByID(w http.ResponseWriter, r *http.Request) {
	Handle(a.logger, a.deleteByID)(w, r)
}

func (a *api) deleteByID(w http.ResponseWriter, r *http.Request) error {
	mLogger := loggerWithReqID(r, a.logger)
	id := r.PathValue("id")

	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	removed, err := a.service.DeleteByID(r.Context(), id)
	if err != nil {
		return notFoundOr(err, id)
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	respondJSON(w, mLogger, http.StatusOK, messageResponse{Message: "Product deleted successfully", Product: removed})
	return nil
}

// Welcome answers the root path with a short plain-text greeting.
func (a *api) Welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

// HealthCheck is a simple health check endpoint.
func (a *api) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// notFoundOr turns a missing product into a NotFoundError naming the ID.
func notFoundOr(err error, id string) error {
	if errors.Is(err, producterrors.ErrProductNotFound) {
		return producterrors.NewNotFound(fmt.Sprintf("Product with id %s not found", id))
	}
	return err
}

// parseIntOrDefault parses a positive query value. Anything else yields def.
func parseIntOrDefault(value string, def int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return def
	}
	return n
}
