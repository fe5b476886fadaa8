package checkout

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// PostgresStore backs the placement transactor and the order-history reads.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx StoreTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

// ProductsByIDs only returns published products, so an unpublished product in a
// cart reads as not found and surfaces as available 0.
func (t *pgTx) ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, price, published
		FROM products
		WHERE id = ANY($1) AND published
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Published); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}

	return products, rows.Err()
}

func (t *pgTx) StockFor(ctx context.Context, productID, size string) (int, error) {
	var stock int
	err := t.tx.QueryRowContext(ctx, `
		SELECT stock
		FROM product_inventory
		WHERE product_id = $1 AND size = $2
	`, productID, size).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// DecrementStock is the conditional write the no-oversell property rests on:
// the stock >= quantity check and the decrement happen in one atomic UPDATE.
func (t *pgTx) DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE product_inventory
		SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3
	`, productID, size, quantity)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, currency, subtotal, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, order.ID, order.UserID, order.Status, order.Currency, order.Subtotal, order.Total, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, size, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.OrderID, item.ProductID, item.Size, item.Quantity, item.UnitPrice)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *PostgresStore) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, status, currency, subtotal, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Currency,
			&order.Subtotal, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, size, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		order := orderMap[item.OrderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (s *PostgresStore) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, currency, subtotal, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Status, &order.Currency,
		&order.Subtotal, &order.Total, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, size, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListAll serves the admin order listing, newest first.
func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, status, currency, subtotal, total, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Currency,
			&order.Subtotal, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}
