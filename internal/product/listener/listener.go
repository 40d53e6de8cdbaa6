package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/product"
	"github.com/fekuna/omnipos-uniform-service/internal/product/dto"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer is the subset of broker.KafkaConsumer the listener reads from.
type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ProductListener struct {
	consumer Consumer
	uc       product.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewProductListener(consumer Consumer, uc product.UseCase, logger logger.ZapLogger) *ProductListener {
	return &ProductListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *ProductListener) Start(ctx context.Context) {
	l.logger.Info("Starting Product Request Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Product Request Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

const EventProductRequested = "ProductRequested"

type ProductRequestedEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   dto.CreateProductInput `json:"payload"`
	UserID    string                 `json:"user_id"`
	Timestamp time.Time              `json:"timestamp"`
}

func (l *ProductListener) processMessage(ctx context.Context, value []byte) {
	var event ProductRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventProductRequested {
		return
	}

	l.logger.Info("Processing ProductRequested event", zap.String("event_id", event.EventID))

	input := event.Payload
	input.CreatedBy = event.UserID
	if input.CreatedBy == "" {
		input.CreatedBy = "system"
	}

	res, err := l.uc.CreateProduct(ctx, &input)
	if err != nil {
		var insufficient *model.InsufficientStockError
		if errors.As(err, &insufficient) {
			l.logger.Warn("Product request rejected for lack of stock",
				zap.String("event_id", event.EventID),
				zap.Int("requested", insufficient.Requested),
				zap.Int("available", insufficient.Available),
			)
			return
		}
		l.logger.Error("Failed to create product from request",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Product created from request",
		zap.String("event_id", event.EventID),
		zap.String("product_id", res.Product.ID),
	)
}
