package catalog

import (
	"reflect"
	"testing"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

func sampleBatches() []model.Batch {
	return []model.Batch{
		{
			ID:   "b1",
			Type: "Shirt",
			Items: []model.BatchItem{
				{VariantType: "Short Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 5}, {Size: "M", Quantity: 2}, {Size: "L", Quantity: 1}}},
				{VariantType: "Long Sleeve", Color: "Blue", Sizes: []model.SizeQuantity{{Size: "S", Quantity: 0}}},
			},
		},
		{
			ID:   "b2",
			Type: "Shirt",
			Items: []model.BatchItem{
				{VariantType: "Short Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 4}}},
				{VariantType: "Short Sleeve", Color: "Cream", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 3}}},
			},
		},
		{
			ID:    "b3",
			Type:  "Trousers",
			Items: []model.BatchItem{{VariantType: "Regular", Color: "Grey", Sizes: []model.SizeQuantity{{Size: "32", Quantity: 10}}}},
		},
		// partial documents never match
		{ID: "b4"},
		{ID: "b5", Type: "Shirt", Items: []model.BatchItem{{Color: "White", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 9}}}}},
		{ID: "b6", Type: "Shirt", Items: []model.BatchItem{{VariantType: "Short Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Quantity: 9}}}}},
	}
}

func TestIndex_Lookups(t *testing.T) {
	ix := Build(sampleBatches())

	if got := ix.Types(); !reflect.DeepEqual(got, []string{"Shirt", "Trousers"}) {
		t.Errorf("Expected types [Shirt Trousers], got %v", got)
	}
	if got := ix.VariantsByType("Shirt"); !reflect.DeepEqual(got, []string{"Long Sleeve", "Short Sleeve"}) {
		t.Errorf("Unexpected variants: %v", got)
	}
	if got := ix.ColorsByTypeVariant("Shirt", "Short Sleeve"); !reflect.DeepEqual(got, []string{"Cream", "White"}) {
		t.Errorf("Unexpected colors: %v", got)
	}
	if got := ix.SizesByTypeVariantColor("Shirt", "Short Sleeve", "White"); !reflect.DeepEqual(got, []string{"L", "M"}) {
		t.Errorf("Unexpected sizes: %v", got)
	}
	if got := ix.VariantsByType("Hat"); len(got) != 0 {
		t.Errorf("Expected no variants for unknown type, got %v", got)
	}
}

func TestIndex_AvailableQuantity(t *testing.T) {
	ix := Build(sampleBatches())

	tests := []struct {
		name     string
		key      model.SKUKey
		expected int
	}{
		{"sums_across_batches_and_duplicate_sizes", model.SKUKey{Type: "Shirt", VariantType: "Short Sleeve", Color: "White", Size: "M"}, 11},
		{"single_entry", model.SKUKey{Type: "Shirt", VariantType: "Short Sleeve", Color: "White", Size: "L"}, 1},
		{"zero_stock", model.SKUKey{Type: "Shirt", VariantType: "Long Sleeve", Color: "Blue", Size: "S"}, 0},
		{"unknown_color", model.SKUKey{Type: "Shirt", VariantType: "Short Sleeve", Color: "Black", Size: "M"}, 0},
		{"unknown_type", model.SKUKey{Type: "Hat", VariantType: "Cap", Color: "Red", Size: "M"}, 0},
		{"blank_key", model.SKUKey{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ix.Available(tt.key); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestIndex_EntriesAndEmpty(t *testing.T) {
	entries := Build(sampleBatches()).Entries()
	if len(entries) != 5 {
		t.Fatalf("Expected 5 entries, got %d: %v", len(entries), entries)
	}
	if entries[0].Key.Type != "Shirt" || entries[len(entries)-1].Key.Type != "Trousers" {
		t.Errorf("Expected entries ordered by key, got %v", entries)
	}

	empty := Build(nil)
	if len(empty.Types()) != 0 || len(empty.Entries()) != 0 {
		t.Error("Expected empty index for no batches")
	}
}
