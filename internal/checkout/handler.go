package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/beyond-silhouette/storefront/internal/auth"
	"github.com/beyond-silhouette/storefront/internal/domain"
	"github.com/beyond-silhouette/storefront/internal/messaging"
)

type Handler struct {
	placer   *Placer
	orders   OrderReader
	producer *messaging.Producer
	logger   *slog.Logger

	ordersPlaced   metric.Int64Counter
	stockConflicts metric.Int64Counter
	orderTotal     metric.Int64Histogram
}

func NewHandler(placer *Placer, orders OrderReader, producer *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("checkout")

	ordersPlaced, err := meter.Int64Counter("checkout.orders.placed",
		metric.WithDescription("Orders successfully placed"))
	if err != nil {
		return nil, err
	}

	stockConflicts, err := meter.Int64Counter("checkout.stock.conflicts",
		metric.WithDescription("Placement attempts rejected for insufficient stock"))
	if err != nil {
		return nil, err
	}

	orderTotal, err := meter.Int64Histogram("checkout.order.total",
		metric.WithDescription("Order totals in minor currency units"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		placer:         placer,
		orders:         orders,
		producer:       producer,
		logger:         logger,
		ordersPlaced:   ordersPlaced,
		stockConflicts: stockConflicts,
		orderTotal:     orderTotal,
	}, nil
}

// itemPayload tolerates the two field spellings clients send for the count and
// leaves quantity as a raw JSON number so sanitization decides what it means.
type itemPayload struct {
	ProductID string      `json:"productId"`
	Size      string      `json:"size"`
	Quantity  json.Number `json:"quantity"`
	Qty       json.Number `json:"qty"`
}

type placeOrderRequest struct {
	Items []itemPayload `json:"items"`
}

func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw := make([]RawLine, 0, len(req.Items))
	for _, it := range req.Items {
		raw = append(raw, RawLine{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  parseQuantity(it.Quantity, it.Qty),
		})
	}

	order, err := h.placer.Place(r.Context(), sess.UserID, raw)
	if err != nil {
		var oos *OutOfStockError
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "Cart is empty")
		case errors.As(err, &oos):
			h.stockConflicts.Add(r.Context(), 1)
			h.logger.Info("order rejected for insufficient stock",
				"user_id", sess.UserID, "lines", len(oos.Items))
			h.writeJSON(w, http.StatusConflict, map[string]any{
				"ok":    false,
				"code":  "OUT_OF_STOCK",
				"items": oos.Items,
			})
		default:
			h.logger.Error("failed to place order", "error", err, "user_id", sess.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.ordersPlaced.Add(r.Context(), 1)
	h.orderTotal.Record(r.Context(), order.Total)

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Email:     sess.Email,
			Currency:  order.Currency,
			Total:     order.Total,
			Items:     order.Items,
			Timestamp: order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "order": order.Summary()})
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	orders, err := h.orders.OrdersByUser(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", sess.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orders": orders})
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.orders.OrderByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Another user's order reads as absent, not as forbidden.
	if order == nil || order.UserID != sess.UserID {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "order": order})
}

// HandleAdminListOrders lists every order; it runs behind RequireAdmin.
func (h *Handler) HandleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list all orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orders": orders})
}

// parseQuantity prefers the canonical field and falls back to the legacy qty
// spelling. Anything that does not parse as a number becomes zero and is
// dropped by sanitization.
func parseQuantity(quantity, qty json.Number) float64 {
	raw := string(quantity)
	if raw == "" {
		raw = string(qty)
	}
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return n
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
