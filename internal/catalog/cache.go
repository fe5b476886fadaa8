package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

const keyCatalog = "catalog:published"

// ProductSource is what the public catalog handlers read from.
type ProductSource interface {
	ListPublished(ctx context.Context) ([]domain.CatalogProduct, error)
	ProductByID(ctx context.Context, id string) (*domain.CatalogProduct, error)
}

// CachedSource puts a Redis read-through cache in front of the published
// listing. The cache is best effort: a Redis failure falls back to the
// database and is logged, never surfaced.
type CachedSource struct {
	src    ProductSource
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSource(src ProductSource, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{src: src, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedSource) ListPublished(ctx context.Context) ([]domain.CatalogProduct, error) {
	data, err := c.rdb.Get(ctx, keyCatalog).Bytes()
	if err == nil {
		var cached []domain.CatalogProduct
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	} else if err != redis.Nil {
		c.logger.Error("catalog cache read failed", "error", err)
	}

	products, err := c.src.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := c.rdb.Set(ctx, keyCatalog, data, c.ttl).Err(); err != nil {
			c.logger.Error("catalog cache write failed", "error", err)
		}
	}

	return products, nil
}

// ProductByID is not cached; single-product reads are cheap and always fresh.
func (c *CachedSource) ProductByID(ctx context.Context, id string) (*domain.CatalogProduct, error) {
	return c.src.ProductByID(ctx, id)
}

// Invalidate drops the cached listing after an admin write.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, keyCatalog).Err()
}
