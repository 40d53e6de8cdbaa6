package school

import (
	"context"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type Repository interface {
	// Fetch returns every school in creation order, served from the repository
	// cache unless forceRefresh is set or the cache was invalidated.
	Fetch(ctx context.Context, forceRefresh bool) ([]model.School, error)
	// FindByID returns nil, nil when the school does not exist.
	FindByID(ctx context.Context, id string) (*model.School, error)
	Create(ctx context.Context, school *model.School) error
	// Update persists every mutable field of an existing school.
	Update(ctx context.Context, school *model.School) error
	Delete(ctx context.Context, id string) error
	Invalidate()
}
