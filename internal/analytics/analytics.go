// Package analytics holds pure reducers over batches, requirement trees and
// students. Absent or partial data counts as zero; nothing here panics.
package analytics

import (
	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/shopspring/decimal"
)

// ItemsQuantity sums every size quantity of the given items. Negative entries count as zero.
func ItemsQuantity(items []model.BatchItem) int {
	total := 0
	for _, item := range items {
		for _, sq := range item.Sizes {
			if sq.Quantity > 0 {
				total += sq.Quantity
			}
		}
	}
	return total
}

// ItemsValue sums quantity * price over every size of the given items.
func ItemsValue(items []model.BatchItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		for _, sq := range item.Sizes {
			if sq.Quantity > 0 {
				total = total.Add(price.Mul(decimal.NewFromInt(int64(sq.Quantity))))
			}
		}
	}
	return total
}

func TotalQuantity(batches []model.Batch) int {
	total := 0
	for _, b := range batches {
		total += ItemsQuantity(b.Items)
	}
	return total
}

// TotalValue is rounded to cents.
func TotalValue(batches []model.Batch) float64 {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(ItemsValue(b.Items))
	}
	return total.Round(2).InexactFloat64()
}

func QuantityByType(batches []model.Batch) map[string]int {
	out := make(map[string]int)
	for _, b := range batches {
		if b.Type == "" {
			continue
		}
		out[b.Type] += ItemsQuantity(b.Items)
	}
	return out
}

type RequirementCount struct {
	Required int `json:"required"`
	Optional int `json:"optional"`
}

// RequirementCounts is keyed level -> gender and always holds all four pairs.
type RequirementCounts map[model.Level]map[model.Gender]RequirementCount

func CountRequirements(tree model.RequirementTree) RequirementCounts {
	out := make(RequirementCounts, len(model.Levels))
	for _, level := range model.Levels {
		out[level] = make(map[model.Gender]RequirementCount, len(model.Genders))
		for _, gender := range model.Genders {
			var c RequirementCount
			for _, item := range tree.Items(level, gender) {
				if item.Required {
					c.Required++
				} else {
					c.Optional++
				}
			}
			out[level][gender] = c
		}
	}
	return out
}

// StudentStatusCounts tallies every per-item status across students.
func StudentStatusCounts(students []model.Student) map[model.FulfillmentStatus]int {
	out := map[model.FulfillmentStatus]int{
		model.StatusPending:   0,
		model.StatusOrdered:   0,
		model.StatusCompleted: 0,
	}
	for _, s := range students {
		for _, status := range s.UniformStatus {
			if status.Valid() {
				out[status]++
			}
		}
	}
	return out
}
