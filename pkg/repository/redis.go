package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes the value at key into dest. A missing key returns redis.Nil.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// CatalogSource is the authoritative catalog behind the cache.
type CatalogSource interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, category, query string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	ReplaceAll(ctx context.Context, products []models.Product) error
}

const catalogKey = "catalog:all"

// CachedCatalog serves the full product list from Redis. Every chat turn reads
// the whole catalog, so this is the hot path. Cache errors fall back to the
// source.
type CachedCatalog struct {
	CatalogSource
	cache  *RedisRepository
	logger *zap.Logger
}

func NewCachedCatalog(source CatalogSource, cache *RedisRepository, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{CatalogSource: source, cache: cache, logger: logger.Named("catalog_cache")}
}

func (c *CachedCatalog) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.cache.GetJSON(ctx, catalogKey, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Catalog cache read failed", zap.Error(err))
	}

	products, err = c.CatalogSource.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, catalogKey, products, c.cache.config.CatalogTTL); err != nil {
		c.logger.Warn("Catalog cache write failed", zap.Error(err))
	}
	return products, nil
}

func (c *CachedCatalog) ReplaceAll(ctx context.Context, products []models.Product) error {
	if err := c.CatalogSource.ReplaceAll(ctx, products); err != nil {
		return err
	}
	return c.cache.Del(ctx, catalogKey)
}

// RedisReplay remembers chat turn results by idempotency key.
type RedisReplay struct {
	repo *RedisRepository
	ttl  time.Duration
}

func (r *RedisRepository) Replay() *RedisReplay {
	return &RedisReplay{repo: r, ttl: r.config.ReplayTTL}
}

func replayKey(userID, key string) string {
	return fmt.Sprintf("turn:%s:%s", userID, key)
}

// Load decodes a stored result into dest and reports whether one existed.
func (r *RedisReplay) Load(ctx context.Context, userID, key string, dest interface{}) (bool, error) {
	err := r.repo.GetJSON(ctx, replayKey(userID, key), dest)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisReplay) Save(ctx context.Context, userID, key string, value interface{}) error {
	return r.repo.SetJSON(ctx, replayKey(userID, key), value, r.ttl)
}
