package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

var ErrUnknownProduct = errors.New("unknown product")

// Repository holds the admin side of per-size stock. The checkout transactor
// has its own conditional-decrement path; this repository only does absolute
// sets and reads.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SizesFor(ctx context.Context, productID string) ([]domain.SizeStock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT size, stock
		FROM product_inventory
		WHERE product_id = $1
		ORDER BY size
	`, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sizes := []domain.SizeStock{}
	for rows.Next() {
		var s domain.SizeStock
		if err := rows.Scan(&s.Size, &s.Stock); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}

	return sizes, rows.Err()
}

// SetStock upserts the absolute stock for one (product, size) row.
func (r *Repository) SetStock(ctx context.Context, productID, size string, stock int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_inventory (product_id, size, stock)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, size) DO UPDATE SET stock = EXCLUDED.stock
	`, productID, size, stock)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrUnknownProduct
		}
		return err
	}

	return nil
}
