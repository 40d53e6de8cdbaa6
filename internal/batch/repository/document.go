package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"go.uber.org/zap"
)

// DocumentRepository stores batches in the "batches" collection and keeps the
// last full read in memory until it is invalidated.
type DocumentRepository struct {
	store  store.Store
	logger logger.ZapLogger

	mu     sync.Mutex
	cached []model.Batch
	valid  bool
	// gen is bumped by Invalidate so a read that overlaps a write is not cached.
	gen uint64
}

func NewDocumentRepository(s store.Store, log logger.ZapLogger) *DocumentRepository {
	return &DocumentRepository{store: s, logger: log}
}

func (r *DocumentRepository) Fetch(ctx context.Context, forceRefresh bool) ([]model.Batch, error) {
	r.mu.Lock()
	if r.valid && !forceRefresh {
		out := cloneAll(r.cached)
		r.mu.Unlock()
		return out, nil
	}
	gen := r.gen
	r.mu.Unlock()

	docs, err := r.store.Query(ctx, store.CollectionBatches, nil)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	batches := make([]model.Batch, 0, len(docs))
	for _, doc := range docs {
		var b model.Batch
		if err := store.Decode(doc, &b); err != nil {
			// A malformed document holds no usable stock; skip it rather than fail every read.
			r.logger.Warn("skipping malformed batch document", zap.String("batch_id", doc.ID()), zap.Error(err))
			continue
		}
		batches = append(batches, b)
	}

	r.mu.Lock()
	if r.gen == gen {
		r.cached = batches
		r.valid = true
	}
	r.mu.Unlock()

	return cloneAll(batches), nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*model.Batch, error) {
	doc, err := r.store.Get(ctx, store.CollectionBatches, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	var b model.Batch
	if err := store.Decode(doc, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *DocumentRepository) Create(ctx context.Context, b *model.Batch) error {
	doc, err := store.Encode(b)
	if err != nil {
		return err
	}
	id, err := r.store.Create(ctx, store.CollectionBatches, doc)
	if err != nil {
		return err
	}
	b.ID = id
	r.Invalidate()
	return nil
}

func (r *DocumentRepository) UpdateStock(ctx context.Context, b *model.Batch) error {
	partial, err := store.Fields(map[string]interface{}{
		"items":         b.Items,
		"totalQuantity": b.TotalQuantity,
		"status":        b.Status,
	})
	if err != nil {
		return err
	}
	// invalidate even on failure; the stored state is unknown after a failed write
	defer r.Invalidate()
	return r.store.Update(ctx, store.CollectionBatches, b.ID, partial)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	defer r.Invalidate()
	return r.store.Delete(ctx, store.CollectionBatches, id)
}

func (r *DocumentRepository) Invalidate() {
	r.mu.Lock()
	r.valid = false
	r.cached = nil
	r.gen++
	r.mu.Unlock()
}

func cloneAll(batches []model.Batch) []model.Batch {
	out := make([]model.Batch, len(batches))
	for i, b := range batches {
		out[i] = b.Clone()
	}
	return out
}
