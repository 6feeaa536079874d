package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pasal/internal/commerce"
)

// API is the browse slice of the commerce client.
type API interface {
	Products(ctx context.Context, q commerce.ProductQuery) ([]commerce.Product, error)
	ProductByID(ctx context.Context, productID int64) (*commerce.Product, error)
	Categories(ctx context.Context, pageNumber, pageSize int) ([]commerce.Category, error)
	ProductsByCategory(ctx context.Context, categoryID int64, pageNumber, pageSize int) ([]commerce.Product, error)
}

// Service is a read-through cache over the commerce API's browse endpoints.
// Cache trouble degrades to a direct API call, never to a user error.
type Service struct {
	api    API
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewService(api API, cache *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{api: api, cache: cache, ttl: ttl, logger: logger}
}

func productsKey(q commerce.ProductQuery) string {
	return fmt.Sprintf("catalog:products:%d:%d:%s:%t:%d",
		q.PageNumber, q.PageSize, q.SearchTerm, q.OnSaleOnly, q.CategoryID)
}

// cached runs fetch through the cache under key. dest must be a pointer.
func (s *Service) cached(ctx context.Context, key string, dest any, fetch func() (any, error)) error {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			if jerr := json.Unmarshal([]byte(data), dest); jerr == nil {
				return nil
			}
			// Corrupt entry: drop it and fall through to the API.
			s.cache.Del(ctx, key)
		} else if err != redis.Nil {
			s.logger.Debugw("catalog cache read failed", "key", key, "error", err.Error())
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("encode catalog payload: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.logger.Debugw("catalog cache write failed", "key", key, "error", err.Error())
		}
	}
	return nil
}

func (s *Service) Products(ctx context.Context, q commerce.ProductQuery) ([]commerce.Product, error) {
	var out []commerce.Product
	err := s.cached(ctx, productsKey(q), &out, func() (any, error) {
		return s.api.Products(ctx, q)
	})
	return out, err
}

func (s *Service) ProductByID(ctx context.Context, productID int64) (*commerce.Product, error) {
	var out commerce.Product
	key := "catalog:product:" + strconv.FormatInt(productID, 10)
	err := s.cached(ctx, key, &out, func() (any, error) {
		return s.api.ProductByID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Categories(ctx context.Context, pageNumber, pageSize int) ([]commerce.Category, error) {
	var out []commerce.Category
	key := fmt.Sprintf("catalog:categories:%d:%d", pageNumber, pageSize)
	err := s.cached(ctx, key, &out, func() (any, error) {
		return s.api.Categories(ctx, pageNumber, pageSize)
	})
	return out, err
}

func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64, pageNumber, pageSize int) ([]commerce.Product, error) {
	var out []commerce.Product
	key := fmt.Sprintf("catalog:category-products:%d:%d:%d", categoryID, pageNumber, pageSize)
	err := s.cached(ctx, key, &out, func() (any, error) {
		return s.api.ProductsByCategory(ctx, categoryID, pageNumber, pageSize)
	})
	return out, err
}
