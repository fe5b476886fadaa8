package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// AdminStore covers the admin-side writes.
type AdminStore interface {
	CreateProduct(ctx context.Context, p domain.Product) error
}

// CacheInvalidator is satisfied by CachedSource; nil means no cache is wired.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	products ProductSource
	admin    AdminStore
	cache    CacheInvalidator
	logger   *slog.Logger
}

func NewHandler(products ProductSource, admin AdminStore, cache CacheInvalidator, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		admin:    admin,
		cache:    cache,
		logger:   logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListPublished(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "products": products})
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.products.ProductByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "product": product})
}

type createProductRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Published bool   `json:"published"`
}

// HandleAdminCreateProduct runs behind RequireAdmin.
func (h *Handler) HandleAdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	if req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product := domain.Product{
		ID:        req.ID,
		Name:      req.Name,
		Price:     req.Price,
		Published: req.Published,
	}
	if err := h.admin.CreateProduct(r.Context(), product); err != nil {
		if errors.Is(err, ErrProductExists) {
			h.writeError(w, http.StatusConflict, "Product already exists")
			return
		}
		h.logger.Error("failed to create product", "error", err, "product_id", req.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Error("failed to invalidate catalog cache", "error", err)
		}
	}

	h.logger.Info("product created", "product_id", req.ID)
	h.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "product": product})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
