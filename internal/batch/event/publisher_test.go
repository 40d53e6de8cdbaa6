package event

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type captureProducer struct {
	key     string
	payload interface{}
	calls   int
}

func (c *captureProducer) PublishJSON(_ context.Context, key string, payload interface{}) error {
	c.calls++
	c.key = key
	c.payload = payload
	return nil
}

func TestStockPublisher_StockAllocated(t *testing.T) {
	prod := &captureProducer{}
	pub := NewStockPublisher(prod)

	if err := pub.StockAllocated(context.Background(), nil); err != nil {
		t.Fatalf("Expected no error for empty results, got %v", err)
	}
	if prod.calls != 0 {
		t.Errorf("Expected nothing published for empty results, got %d calls", prod.calls)
	}

	results := []model.AllocationResult{{
		Key:       model.SKUKey{Type: "Shirt", VariantType: "Short Sleeve", Color: "White", Size: "M"},
		Requested: 3,
		Entries:   []model.AllocationEntry{{BatchID: "B1", Size: "M", Deducted: 3}},
	}}
	if err := pub.StockAllocated(context.Background(), results); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	if prod.key != "Shirt" {
		t.Errorf("Expected key Shirt, got %s", prod.key)
	}
	evt, ok := prod.payload.(StockAllocatedEvent)
	if !ok {
		t.Fatalf("Expected StockAllocatedEvent payload, got %T", prod.payload)
	}
	if evt.EventType != EventStockAllocated || evt.EventID == "" || len(evt.Payload) != 1 {
		t.Errorf("Unexpected event: %+v", evt)
	}
}
