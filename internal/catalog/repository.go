package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

var ErrProductExists = errors.New("product already exists")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListPublished returns the published catalog with per-size stock, ordered by
// product id then size.
func (r *Repository) ListPublished(ctx context.Context) ([]domain.CatalogProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, p.published, p.created_at, p.updated_at,
		       i.size, i.stock
		FROM products p
		LEFT JOIN product_inventory i ON i.product_id = p.id
		WHERE p.published
		ORDER BY p.id, i.size
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.CatalogProduct
	for rows.Next() {
		var p domain.Product
		var size sql.NullString
		var stock sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Published,
			&p.CreatedAt, &p.UpdatedAt, &size, &stock); err != nil {
			return nil, err
		}

		if len(out) == 0 || out[len(out)-1].ID != p.ID {
			out = append(out, domain.CatalogProduct{Product: p, Sizes: []domain.SizeStock{}})
		}
		if size.Valid {
			last := &out[len(out)-1]
			last.Sizes = append(last.Sizes, domain.SizeStock{Size: size.String, Stock: int(stock.Int64)})
		}
	}

	return out, rows.Err()
}

func (r *Repository) ProductByID(ctx context.Context, id string) (*domain.CatalogProduct, error) {
	p := &domain.CatalogProduct{Sizes: []domain.SizeStock{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, published, created_at, updated_at
		FROM products
		WHERE id = $1 AND published
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT size, stock
		FROM product_inventory
		WHERE product_id = $1
		ORDER BY size
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s domain.SizeStock
		if err := rows.Scan(&s.Size, &s.Stock); err != nil {
			return nil, err
		}
		p.Sizes = append(p.Sizes, s)
	}

	return p, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, p.ID, p.Name, p.Price, p.Published, now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrProductExists
		}
		return err
	}

	return nil
}
