package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

func seedProduct(s *memStore, id string, price int64, sizes map[string]int) {
	s.addProduct(domain.Product{ID: id, Name: id, Price: price, Published: true}, sizes)
}

func TestPlaceDecrementsStockAndPersistsOrder(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 2})
	placer := NewPlacer(store, "USD")

	order, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 2},
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, int64(7000), order.Subtotal)
	assert.Equal(t, order.Subtotal, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(3500), order.Items[0].UnitPrice)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 0, store.stockOf("bs-tee-shadow", "M"))

	persisted, err := store.OrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
}

func TestPlaceEmptyCartOpensNoTransaction(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 2})
	placer := NewPlacer(store, "USD")

	cases := map[string][]RawLine{
		"no lines":          nil,
		"negative quantity": {{ProductID: "bs-tee-shadow", Size: "M", Quantity: -5}},
		"zero quantity":     {{ProductID: "bs-tee-shadow", Size: "M", Quantity: 0}},
		"blank product":     {{ProductID: "  ", Size: "M", Quantity: 1}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			order, err := placer.Place(context.Background(), "user-1", raw)
			assert.Nil(t, order)
			assert.ErrorIs(t, err, ErrEmptyCart)
		})
	}

	assert.Equal(t, 0, store.transactions())
	assert.Equal(t, 2, store.stockOf("bs-tee-shadow", "M"))
}

func TestPlaceReportsEveryShortage(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 5})
	seedProduct(store, "bs-hoodie-eclipse", 9000, map[string]int{"L": 1})
	placer := NewPlacer(store, "USD")

	order, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 1},
		{ProductID: "p404", Size: "L", Quantity: 1},
		{ProductID: "bs-hoodie-eclipse", Size: "L", Quantity: 3},
	})
	require.Nil(t, order)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Len(t, oos.Items, 2)
	assert.Equal(t, domain.StockShortage{ProductID: "p404", Size: "L", Available: 0}, oos.Items[0])
	assert.Equal(t, domain.StockShortage{ProductID: "bs-hoodie-eclipse", Size: "L", Available: 1}, oos.Items[1])

	// The satisfiable tee line was decremented inside the transaction and must
	// be restored by the rollback.
	assert.Equal(t, 5, store.stockOf("bs-tee-shadow", "M"))
	assert.Equal(t, 1, store.stockOf("bs-hoodie-eclipse", "L"))

	orders, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceUnpublishedProductReportsZeroAvailable(t *testing.T) {
	store := newMemStore()
	store.addProduct(domain.Product{ID: "bs-coat-archive", Price: 24000, Published: false}, map[string]int{"M": 4})
	placer := NewPlacer(store, "USD")

	_, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-coat-archive", Size: "M", Quantity: 1},
	})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Len(t, oos.Items, 1)
	assert.Equal(t, 0, oos.Items[0].Available)
}

func TestPlaceDuplicateLinesDrainStockInOrder(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 1})
	placer := NewPlacer(store, "USD")

	_, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 1},
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 1},
	})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Len(t, oos.Items, 1)
	assert.Equal(t, 0, oos.Items[0].Available)
	assert.Equal(t, 1, store.stockOf("bs-tee-shadow", "M"))
}

func TestPlacePricesFromSnapshot(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 10})
	placer := NewPlacer(store, "USD")

	order, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 1},
	})
	require.NoError(t, err)

	store.setPrice("bs-tee-shadow", 9999)

	persisted, err := store.OrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, int64(3500), persisted.Items[0].UnitPrice)
	assert.Equal(t, int64(3500), persisted.Subtotal)
}

func TestPlaceInsertFailureRollsBackDecrements(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 3})
	store.failInsert = true
	placer := NewPlacer(store, "USD")

	order, err := placer.Place(context.Background(), "user-1", []RawLine{
		{ProductID: "bs-tee-shadow", Size: "M", Quantity: 2},
	})
	require.Error(t, err)
	assert.Nil(t, order)

	var oos *OutOfStockError
	assert.False(t, errors.As(err, &oos))
	assert.Equal(t, 3, store.stockOf("bs-tee-shadow", "M"))
}

func TestPlaceConcurrentOrdersNeverOversell(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 10})
	placer := NewPlacer(store, "USD")

	const attempts = 25

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := placer.Place(context.Background(), "user-1", []RawLine{
				{ProductID: "bs-tee-shadow", Size: "M", Quantity: 1},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var oos *OutOfStockError
		require.ErrorAs(t, err, &oos)
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, store.stockOf("bs-tee-shadow", "M"))

	orders, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 10)
}

func TestPlaceLastUnitRace(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "bs-tee-shadow", 3500, map[string]int{"M": 2})
	placer := NewPlacer(store, "USD")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := placer.Place(context.Background(), "user-1", []RawLine{
				{ProductID: "bs-tee-shadow", Size: "M", Quantity: 2},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var oos *OutOfStockError
		require.ErrorAs(t, err, &oos)
		rejected++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, store.stockOf("bs-tee-shadow", "M"))
}
