package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// ErrEmptyCart is returned before any store access when sanitization leaves no
// valid lines.
var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError aborts the placement transaction: no order row exists and no
// decrement survives when it is returned. Items lists every unsatisfiable line,
// not just the first one found.
type OutOfStockError struct {
	Items []domain.StockShortage
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %d line(s) unsatisfiable", len(e.Items))
}

// Store opens the transaction scope the placement algorithm runs in. A non-nil
// error from fn must roll the transaction back.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the slice of the backing store visible inside one placement
// transaction. DecrementStock must be a single conditional write (decrement iff
// stock >= quantity), not a read followed by a blind write.
type StoreTx interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	StockFor(ctx context.Context, productID, size string) (int, error)
	DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error)
	InsertOrder(ctx context.Context, order *domain.Order) error
}

// OrderReader serves the order-history endpoints (customer and admin).
type OrderReader interface {
	OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	OrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}
