package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/analytics"
	"github.com/fekuna/omnipos-uniform-service/internal/batch"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/allocation"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/catalog"
	"github.com/fekuna/omnipos-uniform-service/internal/batch/dto"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockBusy is returned when the per-key allocation lock could not be taken.
var ErrLockBusy = fmt.Errorf("allocation lock held, try again later: %w", model.ErrBusy)

type LockConfig struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

type batchUseCase struct {
	repo      batch.Repository
	locker    batch.Locker
	lockCfg   LockConfig
	publisher batch.EventPublisher
	logger    logger.ZapLogger
	now       func() time.Time
}

type Option func(*batchUseCase)

// WithLocker serializes allocations per stock key. Without it callers must
// serialize concurrent allocations for the same key themselves.
func WithLocker(l batch.Locker, cfg LockConfig) Option {
	return func(uc *batchUseCase) {
		uc.locker = l
		uc.lockCfg = cfg
	}
}

func WithPublisher(p batch.EventPublisher) Option {
	return func(uc *batchUseCase) {
		uc.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *batchUseCase) {
		uc.now = now
	}
}

func NewBatchUseCase(repo batch.Repository, log logger.ZapLogger, opts ...Option) batch.UseCase {
	uc := &batchUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
		lockCfg: LockConfig{
			TTL:        5 * time.Second,
			Retries:    3,
			RetryDelay: 100 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *batchUseCase) CreateBatch(ctx context.Context, input *dto.CreateBatchInput) (*model.Batch, error) {
	if strings.TrimSpace(input.Type) == "" {
		return nil, &model.ValidationError{Field: "type", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	items, err := normalizeItems(input.Items)
	if err != nil {
		return nil, err
	}

	b := &model.Batch{
		Name:          strings.TrimSpace(input.Name),
		Type:          strings.TrimSpace(input.Type),
		Items:         items,
		TotalQuantity: analytics.ItemsQuantity(items),
		TotalValue:    analytics.ItemsValue(items).Round(2).InexactFloat64(),
		CreatedBy:     input.CreatedBy,
		CreatedAt:     uc.now().UTC(),
		Status:        model.BatchStatusActive,
	}
	if b.TotalQuantity == 0 {
		b.Status = model.BatchStatusDepleted
	}

	if err := uc.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	uc.logger.Info("batch created",
		zap.String("batch_id", b.ID),
		zap.String("type", b.Type),
		zap.Int("total_quantity", b.TotalQuantity),
	)
	return b, nil
}

// normalizeItems trims labels, rejects negative stock and merges repeated size
// labels inside an item into the first occurrence.
func normalizeItems(in []model.BatchItem) ([]model.BatchItem, error) {
	items := make([]model.BatchItem, 0, len(in))
	for i, item := range in {
		item.VariantType = strings.TrimSpace(item.VariantType)
		item.Color = strings.TrimSpace(item.Color)
		if item.VariantType == "" || item.Color == "" {
			return nil, &model.ValidationError{Field: fmt.Sprintf("items[%d]", i), Reason: "variantType and color are required"}
		}
		if item.Price < 0 {
			return nil, &model.ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "must not be negative"}
		}

		merged := make([]model.SizeQuantity, 0, len(item.Sizes))
		pos := make(map[string]int)
		for _, sq := range item.Sizes {
			size := strings.TrimSpace(sq.Size)
			if size == "" {
				return nil, &model.ValidationError{Field: fmt.Sprintf("items[%d].sizes", i), Reason: "size label is required"}
			}
			if sq.Quantity < 0 {
				return nil, &model.ValidationError{Field: fmt.Sprintf("items[%d].sizes[%s]", i, size), Reason: "quantity must not be negative"}
			}
			if at, ok := pos[size]; ok {
				merged[at].Quantity += sq.Quantity
				continue
			}
			pos[size] = len(merged)
			merged = append(merged, model.SizeQuantity{Size: size, Quantity: sq.Quantity})
		}
		item.Sizes = merged
		items = append(items, item)
	}
	return items, nil
}

func (uc *batchUseCase) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	b, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &model.NotFoundError{Collection: "batches", ID: id}
	}
	return b, nil
}

func (uc *batchUseCase) ListBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, error) {
	if filters == nil {
		filters = &dto.BatchFilters{}
	}
	batches, err := uc.repo.Fetch(ctx, filters.ForceRefresh)
	if err != nil {
		return nil, err
	}

	out := batches[:0]
	for _, b := range batches {
		if filters.Type != "" && b.Type != filters.Type {
			continue
		}
		if filters.Status != "" && string(b.Status) != filters.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (uc *batchUseCase) DeleteBatch(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}

func (uc *batchUseCase) Catalog(ctx context.Context, forceRefresh bool) (*catalog.Index, error) {
	batches, err := uc.repo.Fetch(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return catalog.Build(batches), nil
}

func (uc *batchUseCase) Allocate(ctx context.Context, input *dto.AllocateInput) (*model.AllocationResult, error) {
	results, err := uc.AllocateMany(ctx, []allocation.Request{{Key: input.Key(), Quantity: input.Quantity}})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// AllocateMany plans every request against one fresh snapshot and writes the
// touched batches only once the whole plan is satisfied.
func (uc *batchUseCase) AllocateMany(ctx context.Context, reqs []allocation.Request) ([]model.AllocationResult, error) {
	if len(reqs) == 0 {
		return nil, &model.ValidationError{Field: "requests", Reason: "at least one allocation is required"}
	}
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	release, err := uc.lockKeys(ctx, reqs)
	if err != nil {
		return nil, err
	}
	defer release()

	batches, err := uc.repo.Fetch(ctx, true)
	if err != nil {
		return nil, err
	}

	plan, err := allocation.NewPlan(batches, reqs...)
	if err != nil {
		var insufficient *model.InsufficientStockError
		if errors.As(err, &insufficient) {
			uc.logger.Warn("allocation rejected",
				zap.String("key", fmt.Sprintf("%s/%s/%s/%s", insufficient.Type, insufficient.VariantType, insufficient.Color, insufficient.Size)),
				zap.Int("requested", insufficient.Requested),
				zap.Int("available", insufficient.Available),
			)
		}
		return nil, err
	}

	if err := uc.commit(ctx, plan); err != nil {
		return nil, err
	}

	for _, res := range plan.Results {
		uc.logger.Info("stock allocated",
			zap.String("key", res.Key.String()),
			zap.Int("requested", res.Requested),
			zap.Int("batches", len(res.Entries)),
		)
	}

	if uc.publisher != nil {
		if err := uc.publisher.StockAllocated(ctx, plan.Results); err != nil {
			// the allocation is already committed; a lost event is not worth failing the caller over
			uc.logger.Error("failed to publish stock allocated event", zap.Error(err))
		}
	}
	return plan.Results, nil
}

// commit writes every touched batch. When a write fails, batches written
// before it are restored to their planned-from state.
func (uc *batchUseCase) commit(ctx context.Context, plan *allocation.Plan) error {
	for i := range plan.Touched {
		b := plan.Touched[i]
		if err := uc.repo.UpdateStock(ctx, &b); err != nil {
			uc.logger.Error("allocation commit failed, restoring written batches",
				zap.String("batch_id", b.ID),
				zap.Int("written", i),
				zap.Error(err),
			)
			for _, written := range plan.Touched[:i] {
				original := plan.Original[written.ID]
				if rerr := uc.repo.UpdateStock(ctx, &original); rerr != nil {
					uc.logger.Error("failed to restore batch after aborted allocation",
						zap.String("batch_id", written.ID),
						zap.Error(rerr),
					)
				}
			}
			return fmt.Errorf("persist batch %s: %w", b.ID, err)
		}
	}
	return nil
}

// lockKeys takes one lock per distinct key in sorted order so two multi-key
// allocations cannot deadlock each other.
func (uc *batchUseCase) lockKeys(ctx context.Context, reqs []allocation.Request) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	seen := make(map[string]bool)
	var keys []string
	for _, r := range reqs {
		k := fmt.Sprintf("lock:allocation:%s:%s:%s:%s", r.Key.Type, r.Key.VariantType, r.Key.Color, r.Key.Size)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lockValue := uuid.New().String()
	var held []string
	release := func() {
		for _, k := range held {
			if err := uc.locker.ReleaseLock(context.Background(), k, lockValue); err != nil {
				uc.logger.Error("failed to release allocation lock", zap.String("lock_key", k), zap.Error(err))
			}
		}
	}

	attempts := max(1, uc.lockCfg.Retries)
	for _, k := range keys {
		acquired := false
		for i := 0; i < attempts; i++ {
			ok, err := uc.locker.AcquireLock(ctx, k, lockValue, uc.lockCfg.TTL)
			if err != nil {
				uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			if i == attempts-1 {
				break
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(uc.lockCfg.RetryDelay):
			}
		}
		if !acquired {
			release()
			return nil, ErrLockBusy
		}
		held = append(held, k)
	}
	return release, nil
}

func (uc *batchUseCase) Summary(ctx context.Context) (*dto.BatchSummary, error) {
	batches, err := uc.repo.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, b := range batches {
		if b.Status == model.BatchStatusActive {
			active++
		}
	}
	return &dto.BatchSummary{
		BatchCount:     len(batches),
		ActiveCount:    active,
		TotalQuantity:  analytics.TotalQuantity(batches),
		TotalValue:     analytics.TotalValue(batches),
		QuantityByType: analytics.QuantityByType(batches),
	}, nil
}
