package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rempah/internal/metrics"
	"rempah/internal/models"
	"rempah/pkg/logging"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	productKeyPrefix       = "product:"
	defaultProductCacheTTL = 5 * time.Minute
)

// ProductCache stores product documents by id. Get returns (nil, nil) on a miss.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// RedisProductCache implements ProductCache using Redis.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache creates a Redis-backed product cache.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	if ttl == 0 {
		ttl = defaultProductCacheTTL
	}
	return &RedisProductCache{client: client, ttl: ttl}
}

// Get retrieves a product from cache.
func (c *RedisProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get product %s: %w", id, err)
	}

	product, err := decodeProduct(data)
	if err != nil {
		return nil, fmt.Errorf("cache decode product %s: %w", id, err)
	}
	return product, nil
}

// Set stores a product in cache.
func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) error {
	data, err := encodeProduct(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKeyPrefix+product.ID, data, c.ttl).Err()
}

// Delete removes a product from cache.
func (c *RedisProductCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, productKeyPrefix+id).Err()
}

// cachedProduct keeps Version, which models.Product hides from JSON, so a
// cached read can still be used for a versioned update.
type cachedProduct struct {
	*models.Product
	Version int `json:"version"`
}

func encodeProduct(p *models.Product) ([]byte, error) {
	return json.Marshal(cachedProduct{Product: p, Version: p.Version})
}

func decodeProduct(data []byte) (*models.Product, error) {
	entry := cachedProduct{Product: &models.Product{}}
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	entry.Product.Version = entry.Version
	return entry.Product, nil
}

// CachedProductRepository serves GetByID from a ProductCache and keeps the
// cache coherent on writes. Cache failures fall back to the wrapped repository.
type CachedProductRepository struct {
	ProductRepository
	cache  ProductCache
	logger zerolog.Logger

	// generations counts invalidations per product. A fill only lands if
	// no write touched the product while it was being loaded.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewCachedProductRepository wraps repo with cache.
func NewCachedProductRepository(repo ProductRepository, cache ProductCache) *CachedProductRepository {
	return &CachedProductRepository{
		ProductRepository: repo,
		cache:             cache,
		logger:            logging.With("product-cache"),
		generations:       make(map[string]uint64),
	}
}

// GetByID returns the cached product or loads and caches it.
func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	cached, err := r.cache.Get(ctx, id)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn().Err(err).Str("product_id", id).Msg("cache read failed")
	case cached != nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	r.mu.Lock()
	gen := r.generations[id]
	r.mu.Unlock()

	product, err := r.ProductRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, product, gen)
	return product, nil
}

func (r *CachedProductRepository) fill(ctx context.Context, product *models.Product, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[product.ID] != gen {
		r.logger.Debug().Str("product_id", product.ID).Msg("skipping cache fill after concurrent write")
		return
	}
	if err := r.cache.Set(ctx, product); err != nil {
		r.logger.Warn().Err(err).Str("product_id", product.ID).Msg("cache write failed")
	}
}

// Update saves product and drops its cache entry. The entry is dropped on a
// version conflict too, so that a retry reads the current row.
func (r *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.ProductRepository.Update(ctx, product)
	r.invalidate(ctx, product.ID)
	return err
}

// Delete removes the product and its cache entry.
func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	err := r.ProductRepository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id string) {
	r.mu.Lock()
	r.generations[id]++
	r.mu.Unlock()
	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Warn().Err(err).Str("product_id", id).Msg("cache invalidation failed")
	}
}
