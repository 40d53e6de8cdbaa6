package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/product/dto"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"go.uber.org/zap"
)

// DocumentRepository stores products in the "products" collection.
type DocumentRepository struct {
	store  store.Store
	logger logger.ZapLogger
}

func NewDocumentRepository(s store.Store, log logger.ZapLogger) *DocumentRepository {
	return &DocumentRepository{store: s, logger: log}
}

func (r *DocumentRepository) Create(ctx context.Context, p *model.Product) error {
	doc, err := store.Encode(p)
	if err != nil {
		return err
	}
	id, err := r.store.Create(ctx, store.CollectionProducts, doc)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	p.ID = id
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	doc, err := r.store.Get(ctx, store.CollectionProducts, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	var p model.Product
	if err := store.Decode(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *DocumentRepository) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}

	var pred store.Predicate
	if filters.School != "" {
		pred = store.FieldEquals("school", filters.School)
	}
	docs, err := r.store.Query(ctx, store.CollectionProducts, pred)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}

	products := make([]model.Product, 0, len(docs))
	for _, doc := range docs {
		var p model.Product
		if err := store.Decode(doc, &p); err != nil {
			r.logger.Warn("skipping malformed product document", zap.String("product_id", doc.ID()), zap.Error(err))
			continue
		}
		if !matches(&p, filters) {
			continue
		}
		products = append(products, p)
	}

	total := len(products)
	return paginate(products, filters.Page, filters.PageSize), total, nil
}

func matches(p *model.Product, f *dto.ProductFilters) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Level != "" && !strings.EqualFold(p.Level, f.Level) {
		return false
	}
	if f.Gender != "" && !strings.EqualFold(p.Gender, f.Gender) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.SearchQuery)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{p.Name, p.School, p.Type, p.Category}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// paginate returns page (1-based) of size pageSize. A non-positive pageSize returns everything.
func paginate(products []model.Product, page, pageSize int) []model.Product {
	if pageSize <= 0 {
		return products
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(products) {
		return []model.Product{}
	}
	end := min(start+pageSize, len(products))
	return products[start:end]
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.CollectionProducts, id)
}
