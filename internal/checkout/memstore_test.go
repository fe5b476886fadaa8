package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// memStore mimics the Postgres store closely enough for the transactor to be
// exercised without a database: the conditional decrement is atomic per
// (product, size) row, and a failed transaction undoes its writes. Reads and
// writes lock per operation, not per transaction, so the lost-race branch of
// the decrement is genuinely reachable from concurrent tests.
type memStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	stock    map[string]int
	orders   []domain.Order

	txOpened   int
	failInsert bool
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]domain.Product),
		stock:    make(map[string]int),
	}
}

func stockKey(productID, size string) string {
	return productID + "|" + size
}

func (s *memStore) addProduct(p domain.Product, sizes map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	for size, stock := range sizes {
		s.stock[stockKey(p.ID, size)] = stock
	}
}

func (s *memStore) stockOf(productID, size string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[stockKey(productID, size)]
}

func (s *memStore) setPrice(productID string, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.Price = price
	s.products[productID] = p
}

func (s *memStore) transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txOpened
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	s.txOpened++
	s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type decRec struct {
	key string
	qty int
}

type memTx struct {
	s          *memStore
	decrements []decRec
	inserted   string
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, d := range t.decrements {
		t.s.stock[d.key] += d.qty
	}
	if t.inserted != "" {
		for i, o := range t.s.orders {
			if o.ID == t.inserted {
				t.s.orders = append(t.s.orders[:i], t.s.orders[i+1:]...)
				break
			}
		}
	}
}

func (t *memTx) ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok && p.Published {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) StockFor(ctx context.Context, productID, size string) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.stock[stockKey(productID, size)], nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	key := stockKey(productID, size)
	if t.s.stock[key] < quantity {
		return false, nil
	}
	t.s.stock[key] -= quantity
	t.decrements = append(t.decrements, decRec{key: key, qty: quantity})
	return true, nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.failInsert {
		return errors.New("insert failed")
	}
	t.s.orders = append(t.s.orders, *order)
	t.inserted = order.ID
	return nil
}

func (s *memStore) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

func (s *memStore) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}
