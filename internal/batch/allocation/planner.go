// Package allocation plans FIFO stock deductions against a batch snapshot.
// Planning never touches storage: the caller commits Plan.Touched only after
// every request in the plan has been satisfied.
package allocation

import (
	"sort"

	"github.com/fekuna/omnipos-uniform-service/internal/analytics"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type Request struct {
	Key      model.SKUKey `json:"key"`
	Quantity int          `json:"quantity"`
}

func (r Request) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if r.Quantity <= 0 {
		return &model.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	return nil
}

type Plan struct {
	// Results holds one ledger per request, in request order.
	Results []model.AllocationResult
	// Touched holds the updated copy of every batch the plan deducts from, oldest first.
	Touched []model.Batch
	// Original maps a touched batch id to its state before planning.
	Original map[string]model.Batch
}

// NewPlan deducts every request from copies of batches, oldest batch first.
// Requests are applied in order, so a later request sees what earlier ones left.
// The first request that cannot be met in full fails the whole plan.
func NewPlan(batches []model.Batch, reqs ...Request) (*Plan, error) {
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	working := make([]model.Batch, len(batches))
	for i, b := range batches {
		working[i] = b.Clone()
	}
	sortFIFO(working)

	touched := make(map[string]bool)
	plan := &Plan{Original: make(map[string]model.Batch)}

	for _, r := range reqs {
		result := model.AllocationResult{Key: r.Key, Requested: r.Quantity}
		remaining := r.Quantity

		for i := range working {
			if remaining == 0 {
				break
			}
			b := &working[i]
			if b.Type != r.Key.Type {
				continue
			}
			deducted := deductFromBatch(b, r.Key, remaining)
			if deducted == 0 {
				continue
			}
			if !touched[b.ID] {
				touched[b.ID] = true
				plan.Original[b.ID] = findBatch(batches, b.ID)
			}
			result.Entries = append(result.Entries, model.AllocationEntry{
				BatchID:  b.ID,
				Size:     r.Key.Size,
				Deducted: deducted,
			})
			remaining -= deducted
		}

		if remaining > 0 {
			return nil, &model.InsufficientStockError{
				Type:        r.Key.Type,
				VariantType: r.Key.VariantType,
				Color:       r.Key.Color,
				Size:        r.Key.Size,
				Requested:   r.Quantity,
				Available:   r.Quantity - remaining,
			}
		}
		plan.Results = append(plan.Results, result)
	}

	for _, b := range working {
		if !touched[b.ID] {
			continue
		}
		b.TotalQuantity = analytics.ItemsQuantity(b.Items)
		if b.TotalQuantity == 0 {
			b.Status = model.BatchStatusDepleted
		}
		plan.Touched = append(plan.Touched, b)
	}
	return plan, nil
}

// deductFromBatch takes up to want units of key from b, walking items and
// size entries in stored order, and returns how many it took.
func deductFromBatch(b *model.Batch, key model.SKUKey, want int) int {
	taken := 0
	for i := range b.Items {
		item := &b.Items[i]
		if item.VariantType != key.VariantType || item.Color != key.Color {
			continue
		}
		for j := range item.Sizes {
			sq := &item.Sizes[j]
			if sq.Size != key.Size || sq.Quantity <= 0 {
				continue
			}
			d := min(want-taken, sq.Quantity)
			sq.Quantity -= d
			taken += d
			if taken == want {
				return taken
			}
		}
	}
	return taken
}

// sortFIFO orders batches by creation time, ties broken by id so the order is deterministic.
func sortFIFO(batches []model.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		}
		return batches[i].ID < batches[j].ID
	})
}

func findBatch(batches []model.Batch, id string) model.Batch {
	for _, b := range batches {
		if b.ID == id {
			return b.Clone()
		}
	}
	return model.Batch{}
}
