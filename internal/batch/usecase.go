package batch

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/batch/allocation"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/catalog"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/dto"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type UseCase interface {
	CreateBatch(ctx context.Context, input *dto.CreateBatchInput) (*model.Batch, error)
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	ListBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, error)
	DeleteBatch(ctx context.Context, id string) error

	// Catalog
	Catalog(ctx context.Context, forceRefresh bool) (*catalog.Index, error)

	// Allocation
	Allocate(ctx context.Context, input *dto.AllocateInput) (*model.AllocationResult, error)
	AllocateMany(ctx context.Context, reqs []allocation.Request) ([]model.AllocationResult, error)

	Summary(ctx context.Context) (*dto.BatchSummary, error)
}

// Locker serializes allocations per stock key across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// EventPublisher announces committed allocations.
type EventPublisher interface {
	StockAllocated(ctx context.Context, results []model.AllocationResult) error
}
