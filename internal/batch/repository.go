package batch

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type Repository interface {
	// Fetch returns every batch in creation order. Results are served from the
	// repository cache unless forceRefresh is set or the cache was invalidated.
	Fetch(ctx context.Context, forceRefresh bool) ([]model.Batch, error)
	FindByID(ctx context.Context, id string) (*model.Batch, error)
	Create(ctx context.Context, batch *model.Batch) error
	// UpdateStock persists items, totalQuantity and status of an existing batch.
	UpdateStock(ctx context.Context, batch *model.Batch) error
	Delete(ctx context.Context, id string) error
	Invalidate()
}
