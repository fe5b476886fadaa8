package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// StockStore is the repository slice the handlers need.
type StockStore interface {
	SizesFor(ctx context.Context, productID string) ([]domain.SizeStock, error)
	SetStock(ctx context.Context, productID, size string, stock int) error
}

// CatalogCache is invalidated after stock writes so the public listing does
// not serve stale counts for a full TTL.
type CatalogCache interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	store  StockStore
	cache  CatalogCache
	logger *slog.Logger
}

func NewHandler(store StockStore, cache CatalogCache, logger *slog.Logger) *Handler {
	return &Handler{store: store, cache: cache, logger: logger}
}

// HandleGetInventory runs behind RequireAdmin.
func (h *Handler) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	sizes, err := h.store.SizesFor(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to read inventory", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "productId": productID, "sizes": sizes})
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

// HandleSetStock sets absolute stock for one (product, size); it runs behind
// RequireAdmin.
func (h *Handler) HandleSetStock(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.PathValue("productId"))
	size := strings.TrimSpace(r.PathValue("size"))
	if productID == "" || size == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id or size")
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Stock < 0 {
		h.writeError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	if err := h.store.SetStock(r.Context(), productID, size, req.Stock); err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			h.writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to set stock", "error", err, "product_id", productID, "size", size)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Error("failed to invalidate catalog cache", "error", err)
		}
	}

	h.logger.Info("stock set", "product_id", productID, "size", size, "stock", req.Stock)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"inventory": map[string]any{
			"productId": productID,
			"size":      size,
			"stock":     req.Stock,
		},
	})
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
