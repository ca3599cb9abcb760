package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/catalog"
	"github.com/flicky/go-storefront/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

const productListCacheKey = "products:all"

// Catalog is the read side of the upstream product API.
type Catalog interface {
	Products(ctx context.Context) ([]model.Product, error)
	Product(ctx context.Context, id string) (*model.Product, error)
	Search(ctx context.Context, query string) ([]model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// ProductService reads through a Redis cache when one is configured. Listing
// calls never fail: upstream errors are logged and yield empty results.
type ProductService struct {
	catalog     Catalog
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *slog.Logger
}

func NewProductService(c Catalog, redisClient *redis.Client, cacheTTL time.Duration, log *slog.Logger) *ProductService {
	return &ProductService{catalog: c, redisClient: redisClient, cacheTTL: cacheTTL, log: log}
}

func (s *ProductService) List(ctx context.Context) []model.Product {
	var cached []model.Product
	if s.cacheGet(ctx, productListCacheKey, &cached) {
		return cached
	}
	products, err := s.catalog.Products(ctx)
	if err != nil {
		s.log.Error("list products failed", "error", err)
		return []model.Product{}
	}
	s.cacheSet(ctx, productListCacheKey, products)
	return products
}

func (s *ProductService) Featured(ctx context.Context) []model.Product {
	return filterProducts(s.List(ctx), func(p model.Product) bool { return p.Featured })
}

func (s *ProductService) ByCategory(ctx context.Context, slug string) []model.Product {
	return filterProducts(s.List(ctx), func(p model.Product) bool { return p.Category == slug })
}

func (s *ProductService) Categories(ctx context.Context) []model.Category {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		s.log.Error("list categories failed", "error", err)
		return []model.Category{}
	}
	return categories
}

// Search lists everything for a blank query.
func (s *ProductService) Search(ctx context.Context, query string) []model.Product {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	products, err := s.catalog.Search(ctx, query)
	if err != nil {
		s.log.Error("search products failed", "query", query, "error", err)
		return []model.Product{}
	}
	return products
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	cacheKey := "product:" + id

	var cached model.Product
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	product, err := s.catalog.Product(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.cacheSet(ctx, cacheKey, product)
	return product, nil
}

func (s *ProductService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.redisClient == nil {
		return false
	}
	cached, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, out) == nil
}

func (s *ProductService) cacheSet(ctx context.Context, key string, v any) {
	if s.redisClient == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

func filterProducts(in []model.Product, keep func(model.Product) bool) []model.Product {
	out := make([]model.Product, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
