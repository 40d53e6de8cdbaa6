package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/batch/allocation"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/product"
	"github.com/fekuna/omnipos-uniform-service/internal/product/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	indexName    = "products"
	listCacheTTL = 5 * time.Minute

	indexMapping = `{
		"mappings": {
			"properties": {
				"name": { "type": "text" },
				"school": { "type": "keyword" },
				"category": { "type": "keyword" },
				"type": { "type": "keyword" },
				"gender": { "type": "keyword" },
				"level": { "type": "keyword" },
				"createdAt": { "type": "date" }
			}
		}
	}`
)

type productUseCase struct {
	repo      product.Repository
	allocator product.Allocator
	cache     product.ListCache
	es        product.Indexer
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewProductUseCase wires the product catalog. cache and es may be nil; list
// results are then always read from the store.
func NewProductUseCase(repo product.Repository, allocator product.Allocator, cache product.ListCache, es product.Indexer, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:      repo,
		allocator: allocator,
		cache:     cache,
		es:        es,
		logger:    log,
		now:       time.Now,
	}
}

// EnsureIndex creates the search index when a search backend is configured.
func EnsureIndex(ctx context.Context, es product.Indexer) error {
	if es == nil {
		return nil
	}
	return es.CreateIndex(ctx, indexName, indexMapping)
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.CreateProductResult, error) {
	reqs, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	allocations, err := uc.allocator.AllocateMany(ctx, reqs)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:      strings.TrimSpace(input.Name),
		School:    strings.TrimSpace(input.School),
		Category:  strings.TrimSpace(input.Category),
		Type:      strings.TrimSpace(input.Type),
		Gender:    input.Gender,
		Level:     input.Level,
		Variants:  input.Variants,
		CreatedBy: input.CreatedBy,
		CreatedAt: uc.now().UTC(),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		// Stock is already consumed at this point; the ledger is logged so it can be reconciled.
		ledger, _ := json.Marshal(allocations)
		uc.logger.Error("product not stored after stock allocation",
			zap.String("name", p.Name),
			zap.ByteString("allocations", ledger),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("type", p.Type),
		zap.Int("allocations", len(allocations)),
	)

	uc.invalidateListCache(ctx)
	uc.syncToElastic(ctx, p)

	return &dto.CreateProductResult{Product: p, Allocations: allocations}, nil
}

// validateCreate checks the input and turns every positive variant size into
// an allocation request against the product type.
func validateCreate(input *dto.CreateProductInput) ([]allocation.Request, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	typ := strings.TrimSpace(input.Type)
	if typ == "" {
		return nil, &model.ValidationError{Field: "type", Reason: "must not be empty"}
	}

	var reqs []allocation.Request
	for i, v := range input.Variants {
		for _, sq := range v.Sizes {
			if sq.Quantity < 0 {
				return nil, &model.ValidationError{Field: fmt.Sprintf("variants[%d].sizes[%s]", i, sq.Size), Reason: "quantity must not be negative"}
			}
			if sq.Quantity == 0 {
				continue
			}
			reqs = append(reqs, allocation.Request{
				Key: model.SKUKey{
					Type:        typ,
					VariantType: strings.TrimSpace(v.VariantType),
					Color:       strings.TrimSpace(v.Color),
					Size:        strings.TrimSpace(sq.Size),
				},
				Quantity: sq.Quantity,
			})
		}
	}
	if len(reqs) == 0 {
		return nil, &model.ValidationError{Field: "variants", Reason: "at least one size with a positive quantity is required"}
	}
	return reqs, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Index(ctx, indexName, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &model.NotFoundError{Collection: "products", ID: id}
	}
	return p, nil
}

func (uc *productUseCase) UniformName(ctx context.Context, id string) (string, bool) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil || p == nil {
		return "", false
	}
	return p.Name, true
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}

	cacheKey := ""
	if uc.cache != nil {
		if key, err := generateCacheKey(filters); err == nil {
			cacheKey = key
			var hit cachedList
			if ok, err := uc.cache.GetJSON(ctx, cacheKey, &hit); err == nil && ok {
				return hit.Products, hit.Count, nil
			}
		}
	}

	if strings.TrimSpace(filters.SearchQuery) != "" && uc.es != nil {
		products, total, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("ES search failed, falling back to store", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, cachedList{Products: products, Count: count}, listCacheTTL); err != nil {
			uc.logger.Warn("failed to cache product list", zap.Error(err))
		}
	}
	return products, count, nil
}

func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":     filters.SearchQuery,
				"fields":    []string{"name^3", "school", "type", "category"},
				"fuzziness": "AUTO",
			},
		},
	}
	for field, value := range map[string]string{
		"school": filters.School,
		"type":   filters.Type,
		"level":  filters.Level,
		"gender": filters.Gender,
	} {
		if value != "" {
			must = append(must, map[string]interface{}{"term": map[string]interface{}{field: value}})
		}
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
	if filters.PageSize > 0 {
		page := max(1, filters.Page)
		q["from"] = (page - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}
	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, "products:list:*"); err != nil {
		uc.logger.Warn("failed to invalidate product list cache", zap.Error(err))
	}
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.logger.Info("product deleted", zap.String("product_id", id))
	uc.invalidateListCache(ctx)
	if uc.es != nil {
		if err := uc.es.Delete(ctx, indexName, id); err != nil {
			uc.logger.Error("failed to delete product from ES", zap.Error(err))
		}
	}
	return nil
}
