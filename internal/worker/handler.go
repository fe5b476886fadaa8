package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// ConfirmationHandler turns order.placed events into confirmation emails.
// Inventory is already settled inside the placement transaction, so unlike a
// saga worker this handler never touches stock or order status.
type ConfirmationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewConfirmationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *ConfirmationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if err := h.sendConfirmationEmail(ctx, event); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID)
	return nil
}

func (h *ConfirmationHandler) sendConfirmationEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	var lines strings.Builder
	for _, item := range event.Items {
		fmt.Fprintf(&lines, "%d x %s (%s) at %d\n", item.Quantity, item.ProductID, item.Size, item.UnitPrice)
	}
	fmt.Fprintf(&lines, "Total: %d %s\n", event.Total, event.Currency)

	body := map[string]string{
		"to":      event.Email,
		"subject": "Your Beyond Silhouette order " + event.OrderID,
		"body":    lines.String(),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
