package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

var placerTracer = otel.Tracer("checkout/placer")

// Placer converts a raw cart payload into either a persisted order with
// decremented inventory, or a rejection with zero persisted side effects.
// Correctness under concurrent requests for the same (product, size) relies on
// the store's conditional decrement, not on any in-process locking.
type Placer struct {
	store    Store
	currency string
	now      func() time.Time
}

func NewPlacer(store Store, currency string) *Placer {
	return &Placer{
		store:    store,
		currency: currency,
		now:      time.Now,
	}
}

// Place runs the placement transaction for the given user. It returns
// ErrEmptyCart without opening a transaction when sanitization drops every
// line, *OutOfStockError after a full rollback when any line cannot be
// satisfied, and the created order otherwise.
func (p *Placer) Place(ctx context.Context, userID string, raw []RawLine) (*domain.Order, error) {
	lines := Sanitize(raw)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ctx, span := placerTracer.Start(ctx, "checkout.place")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.user_id", userID),
		attribute.Int("checkout.lines", len(lines)),
	)

	var order *domain.Order
	err := p.store.WithinTx(ctx, func(tx StoreTx) error {
		products, err := tx.ProductsByIDs(ctx, dedupeIDs(lines))
		if err != nil {
			return err
		}

		// One pass over all lines, collecting every shortage instead of
		// aborting at the first, so the caller gets a complete report.
		var shortages []domain.StockShortage
		for _, ln := range lines {
			if _, ok := products[ln.ProductID]; !ok {
				shortages = append(shortages, domain.StockShortage{
					ProductID: ln.ProductID, Size: ln.Size, Available: 0,
				})
				continue
			}

			stock, err := tx.StockFor(ctx, ln.ProductID, ln.Size)
			if err != nil {
				return err
			}
			if stock < ln.Quantity {
				shortages = append(shortages, domain.StockShortage{
					ProductID: ln.ProductID, Size: ln.Size, Available: stock,
				})
				continue
			}

			ok, err := tx.DecrementStock(ctx, ln.ProductID, ln.Size, ln.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// A concurrent transaction won the race between the read
				// above and this write. Report whatever is left now.
				fresh, err := tx.StockFor(ctx, ln.ProductID, ln.Size)
				if err != nil {
					return err
				}
				shortages = append(shortages, domain.StockShortage{
					ProductID: ln.ProductID, Size: ln.Size, Available: fresh,
				})
			}
		}

		if len(shortages) > 0 {
			return &OutOfStockError{Items: shortages}
		}

		o := &domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Status:    domain.OrderStatusProcessing,
			Currency:  p.currency,
			CreatedAt: p.now().UTC(),
		}
		for _, ln := range lines {
			// Unit price comes from the batch read at the top of the
			// transaction; it is never re-read.
			price := products[ln.ProductID].Price
			o.Items = append(o.Items, domain.OrderItem{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: ln.ProductID,
				Size:      ln.Size,
				Quantity:  ln.Quantity,
				UnitPrice: price,
			})
			o.Subtotal += price * int64(ln.Quantity)
		}
		o.Total = o.Subtotal

		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return order, nil
}
