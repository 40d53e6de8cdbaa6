package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/batch/allocation"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/product/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/search"
)

type UseCase interface {
	// CreateProduct consumes the requested variant quantities from batch stock
	// and stores the product only when every quantity could be allocated.
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.CreateProductResult, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	// DeleteProduct removes the catalog entry. Consumed batch stock is not restored.
	DeleteProduct(ctx context.Context, id string) error
	// UniformName resolves a product id to its display name for requirement items.
	UniformName(ctx context.Context, id string) (string, bool)
}

// Allocator deducts stock from batches all-or-nothing.
type Allocator interface {
	AllocateMany(ctx context.Context, reqs []allocation.Request) ([]model.AllocationResult, error)
}

// ListCache stores product list pages.
type ListCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Indexer is the search backend used for free text product search.
type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResult, error)
}
