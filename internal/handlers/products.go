package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/catalog"
	"shopapi/internal/handlers/respond"
	"shopapi/internal/middleware"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	catalog *catalog.Service
	log     *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(svc *catalog.Service, log *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: svc, log: log}
}

// List serves GET /api/products with filter, sort, and pagination query
// parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.catalog.List(r.Context(), q)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{
		"products":   result.Products,
		"pagination": result.Pagination,
		"facets":     result.Facets,
	})
}

func parseListQuery(r *http.Request) (catalog.ListQuery, error) {
	params := r.URL.Query()
	q := catalog.ListQuery{
		Category: params.Get("category"),
		Search:   params.Get("search"),
		SortBy:   params.Get("sortBy"),
		SortAsc:  params.Get("order") == "asc",
	}

	if brands := params.Get("brands"); brands != "" {
		for _, b := range strings.Split(brands, ",") {
			if b = strings.TrimSpace(b); b != "" {
				q.Brands = append(q.Brands, b)
			}
		}
	}
	for name, dst := range map[string]**float64{"minPrice": &q.MinPrice, "maxPrice": &q.MaxPrice} {
		if raw := params.Get(name); raw != "" {
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil || val < 0 {
				return q, errors.New("invalid " + name)
			}
			*dst = &val
		}
	}
	for name, dst := range map[string]**bool{"featured": &q.Featured, "trending": &q.Trending} {
		if raw := params.Get(name); raw != "" {
			val, err := strconv.ParseBool(raw)
			if err != nil {
				return q, errors.New("invalid " + name)
			}
			*dst = &val
		}
	}
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		if raw := params.Get(name); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil || val < 1 {
				return q, errors.New("invalid " + name)
			}
			*dst = val
		}
	}
	return q, nil
}

// Get serves GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{"product": product})
}

// Featured serves GET /api/products/featured.
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context(), limitParam(r))
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{"products": products})
}

// Trending serves GET /api/products/trending.
func (h *ProductHandler) Trending(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Trending(r.Context(), limitParam(r))
	if err != nil {
		h.internal(w, r, err)
		return
	}
	respond.OK(w, "", map[string]any{"products": products})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// Create serves POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	product, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respond.Created(w, "Product created", map[string]any{"product": product})
}

// Update serves PUT /api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in catalog.UpdateInput
	if !decodeBody(w, r, &in) {
		return
	}
	product, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respond.OK(w, "Product updated", map[string]any{"product": product})
}

// Delete serves DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.catalogError(w, r, err)
		return
	}
	respond.OK(w, "Product deleted", nil)
}

// AdjustStock serves PATCH /api/products/{id}/stock.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Operation string `json:"operation"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := h.catalog.AdjustStock(r.Context(), id, catalog.StockOp(req.Operation), req.Quantity)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	respond.OK(w, "Stock updated", map[string]any{"product": product})
}

func (h *ProductHandler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, catalog.ErrValidation), errors.Is(err, catalog.ErrInsufficientStock):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.internal(w, r, err)
	}
}

func (h *ProductHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "path", r.URL.Path, "requestId", middleware.RequestIDFromContext(r.Context()), "error", err)
	respond.Error(w, http.StatusInternalServerError, "Something went wrong")
}

// pathID reads the {id} route variable as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
