package event

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/google/uuid"
)

const EventStockAllocated = "StockAllocated"

// Producer is the subset of broker.KafkaProducer the publisher needs.
type Producer interface {
	PublishJSON(ctx context.Context, key string, payload interface{}) error
}

type StockAllocatedEvent struct {
	EventID   string                   `json:"event_id"`
	EventType string                   `json:"event_type"`
	Payload   []model.AllocationResult `json:"payload"`
	Timestamp time.Time                `json:"timestamp"`
}

type StockPublisher struct {
	producer Producer
	now      func() time.Time
}

func NewStockPublisher(p Producer) *StockPublisher {
	return &StockPublisher{producer: p, now: time.Now}
}

// StockAllocated publishes one event per committed allocation, keyed by the
// type of the first result so events for a uniform type stay ordered.
func (p *StockPublisher) StockAllocated(ctx context.Context, results []model.AllocationResult) error {
	if len(results) == 0 {
		return nil
	}
	evt := StockAllocatedEvent{
		EventID:   uuid.New().String(),
		EventType: EventStockAllocated,
		Payload:   results,
		Timestamp: p.now().UTC(),
	}
	return p.producer.PublishJSON(ctx, results[0].Key.Type, evt)
}
