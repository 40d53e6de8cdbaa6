package allocation

import (
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

var (
	shirtM = model.SKUKey{Type: "Shirt", VariantType: "Short Sleeve", Color: "White", Size: "M"}
	base   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func shirtBatch(id string, createdAt time.Time, qty int) model.Batch {
	return model.Batch{
		ID:        id,
		Type:      "Shirt",
		CreatedAt: createdAt,
		Status:    model.BatchStatusActive,
		Items: []model.BatchItem{{
			VariantType: "Short Sleeve",
			Color:       "White",
			Price:       10,
			Sizes:       []model.SizeQuantity{{Size: "M", Quantity: qty}},
		}},
		TotalQuantity: qty,
	}
}

func sizeQty(b model.Batch, size string) int {
	total := 0
	for _, item := range b.Items {
		for _, sq := range item.Sizes {
			if sq.Size == size {
				total += sq.Quantity
			}
		}
	}
	return total
}

func TestNewPlan_FIFO(t *testing.T) {
	// B2 is listed first but created later; FIFO must follow createdAt.
	batches := []model.Batch{
		shirtBatch("B2", base.Add(time.Hour), 10),
		shirtBatch("B1", base, 5),
	}

	plan, err := NewPlan(batches, Request{Key: shirtM, Quantity: 8})
	if err != nil {
		t.Fatalf("Expected allocation to succeed, got %v", err)
	}

	entries := plan.Results[0].Entries
	if len(entries) != 2 {
		t.Fatalf("Expected 2 ledger entries, got %v", entries)
	}
	if entries[0].BatchID != "B1" || entries[0].Deducted != 5 {
		t.Errorf("Expected 5 from B1 first, got %+v", entries[0])
	}
	if entries[1].BatchID != "B2" || entries[1].Deducted != 3 {
		t.Errorf("Expected 3 from B2 second, got %+v", entries[1])
	}
	if plan.Results[0].Allocated() != 8 {
		t.Errorf("Expected ledger to sum to 8, got %d", plan.Results[0].Allocated())
	}

	if len(plan.Touched) != 2 || plan.Touched[0].ID != "B1" {
		t.Fatalf("Expected both batches touched oldest first, got %v", plan.Touched)
	}
	if plan.Touched[0].Status != model.BatchStatusDepleted || plan.Touched[0].TotalQuantity != 0 {
		t.Errorf("Expected B1 depleted, got %+v", plan.Touched[0])
	}
	if plan.Touched[1].TotalQuantity != 7 || plan.Touched[1].Status != model.BatchStatusActive {
		t.Errorf("Expected B2 to keep 7 and stay active, got %+v", plan.Touched[1])
	}

	// input snapshot is never mutated
	if sizeQty(batches[0], "M") != 10 || sizeQty(batches[1], "M") != 5 {
		t.Error("Expected input batches to be left untouched")
	}
	if sizeQty(plan.Original["B1"], "M") != 5 {
		t.Errorf("Expected original B1 to record 5, got %d", sizeQty(plan.Original["B1"], "M"))
	}
}

func TestNewPlan_Insufficient(t *testing.T) {
	batches := []model.Batch{shirtBatch("B1", base, 5), shirtBatch("B2", base.Add(time.Minute), 2)}

	plan, err := NewPlan(batches, Request{Key: shirtM, Quantity: 9})
	if plan != nil {
		t.Error("Expected no plan on failure")
	}
	var insufficient *model.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if insufficient.Requested != 9 || insufficient.Available != 7 || insufficient.Shortfall() != 2 {
		t.Errorf("Unexpected error details: %+v", insufficient)
	}
	if insufficient.Type != "Shirt" || insufficient.Size != "M" {
		t.Errorf("Expected key to be reported, got %+v", insufficient)
	}
}

func TestNewPlan_SequentialRequestsSeeEarlierDeductions(t *testing.T) {
	batches := []model.Batch{shirtBatch("B1", base, 5)}

	plan, err := NewPlan(batches, Request{Key: shirtM, Quantity: 5})
	if err != nil {
		t.Fatalf("Expected first allocation to succeed, got %v", err)
	}
	if sizeQty(plan.Touched[0], "M") != 0 {
		t.Fatalf("Expected quantity 0 after allocating 5, got %d", sizeQty(plan.Touched[0], "M"))
	}

	_, err = NewPlan(plan.Touched, Request{Key: shirtM, Quantity: 1})
	var insufficient *model.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if insufficient.Requested != 1 || insufficient.Available != 0 {
		t.Errorf("Expected requested 1 available 0, got %+v", insufficient)
	}

	// the same thing inside a single plan
	_, err = NewPlan(batches, Request{Key: shirtM, Quantity: 4}, Request{Key: shirtM, Quantity: 2})
	if !errors.As(err, &insufficient) || insufficient.Available != 1 {
		t.Errorf("Expected second request in plan to see 1 remaining, got %v", err)
	}
}

func TestNewPlan_MatchesOnlyExactKey(t *testing.T) {
	batches := []model.Batch{
		{
			ID: "mixed", Type: "Shirt", CreatedAt: base,
			Items: []model.BatchItem{
				{VariantType: "Short Sleeve", Color: "Cream", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 50}}},
				{VariantType: "Long Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 50}}},
				{VariantType: "Short Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Size: "L", Quantity: 50}, {Size: "M", Quantity: 1}, {Size: "M", Quantity: 2}}},
			},
		},
		{ID: "other", Type: "Blouse", CreatedAt: base, Items: []model.BatchItem{{VariantType: "Short Sleeve", Color: "White", Sizes: []model.SizeQuantity{{Size: "M", Quantity: 50}}}}},
	}

	plan, err := NewPlan(batches, Request{Key: shirtM, Quantity: 3})
	if err != nil {
		t.Fatalf("Expected duplicate size entries to be drained in order, got %v", err)
	}
	if len(plan.Touched) != 1 || plan.Touched[0].ID != "mixed" {
		t.Fatalf("Expected only the mixed batch touched, got %v", plan.Touched)
	}
	items := plan.Touched[0].Items
	if items[0].Sizes[0].Quantity != 50 || items[1].Sizes[0].Quantity != 50 || items[2].Sizes[0].Quantity != 50 {
		t.Error("Expected non-matching entries to keep their stock")
	}
	if items[2].Sizes[1].Quantity != 0 || items[2].Sizes[2].Quantity != 0 {
		t.Errorf("Expected both M entries drained, got %v", items[2].Sizes)
	}
	if plan.Touched[0].TotalQuantity != 150 {
		t.Errorf("Expected remaining total 150, got %d", plan.Touched[0].TotalQuantity)
	}
}

func TestNewPlan_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"zero_quantity", Request{Key: shirtM, Quantity: 0}, "quantity"},
		{"negative_quantity", Request{Key: shirtM, Quantity: -2}, "quantity"},
		{"blank_type", Request{Key: model.SKUKey{VariantType: "a", Color: "b", Size: "c"}, Quantity: 1}, "type"},
		{"blank_size", Request{Key: model.SKUKey{Type: "a", VariantType: "b", Color: "c", Size: " "}, Quantity: 1}, "size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(nil, tt.req)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestNewPlan_Conservation(t *testing.T) {
	batches := []model.Batch{
		shirtBatch("B1", base, 4),
		shirtBatch("B2", base.Add(time.Second), 6),
		shirtBatch("B3", base.Add(2*time.Second), 9),
	}
	initial := 0
	for _, b := range batches {
		initial += sizeQty(b, "M")
	}

	requested := 0
	current := batches
	for _, qty := range []int{3, 1, 5, 7} {
		plan, err := NewPlan(current, Request{Key: shirtM, Quantity: qty})
		if err != nil {
			t.Fatalf("Expected allocation of %d to succeed, got %v", qty, err)
		}
		requested += qty
		current = applyTouched(current, plan.Touched)
	}

	final := 0
	for _, b := range current {
		q := sizeQty(b, "M")
		if q < 0 {
			t.Fatalf("Batch %s went negative: %d", b.ID, q)
		}
		final += q
	}
	if initial-final != requested {
		t.Errorf("Expected %d units removed, got %d", requested, initial-final)
	}
}

func applyTouched(batches, touched []model.Batch) []model.Batch {
	out := make([]model.Batch, len(batches))
	copy(out, batches)
	for _, tb := range touched {
		for i := range out {
			if out[i].ID == tb.ID {
				out[i] = tb
			}
		}
	}
	return out
}
