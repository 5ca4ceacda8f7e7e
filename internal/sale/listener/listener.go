package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/sale"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

const (
	orderCreated      = "OrderCreated"
	systemUser        = "system"
	itemAttempts      = 3
	fetchErrorBackoff = time.Second
)

// Consumer is the part of broker.KafkaConsumer the listener needs.
type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderListener struct {
	consumer Consumer
	uc       sale.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewOrderListener(consumer Consumer, uc sale.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  fetchErrorBackoff,
	}
}

// Start blocks until ctx is done. Offsets are committed only after every
// item of a message has been handled.
func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order Kafka listener")
	for {
		msg, err := l.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping order Kafka listener")
				return
			}
			l.logger.Error("Failed to fetch kafka message", zap.Error(err))
			select {
			case <-time.After(l.backoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		l.processMessage(ctx, msg.Value)

		if err := l.consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.logger.Error("Failed to commit kafka message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID     string             `json:"id"`
	UserID string             `json:"user_id"`
	Items  []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// RequestID identifies one order line across redeliveries.
func RequestID(eventID string, index int) string {
	return fmt.Sprintf("%s:%d", eventID, index)
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != orderCreated {
		return
	}
	if event.EventID == "" {
		l.logger.Warn("OrderCreated event without event_id skipped", zap.String("order_id", event.Payload.ID))
		return
	}

	l.logger.Info("Processing OrderCreated event",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.Payload.ID),
		zap.Int("items", len(event.Payload.Items)),
	)

	userID := event.Payload.UserID
	if userID == "" {
		userID = systemUser
	}

	for i, item := range event.Payload.Items {
		input := &dto.RecordSaleInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UserID:    userID,
			RequestID: RequestID(event.EventID, i),
		}
		l.recordItem(ctx, event.Payload.ID, input)
	}
}

func (l *OrderListener) recordItem(ctx context.Context, orderID string, input *dto.RecordSaleInput) {
	for attempt := 1; ; attempt++ {
		_, err := l.uc.RecordSale(ctx, input)
		switch {
		case err == nil:
			return
		case errors.Is(err, model.ErrDuplicateRequest):
			l.logger.Debug("Order item already recorded", zap.String("request_id", input.RequestID))
			return
		case errors.Is(err, model.ErrStorageUnavailable) && attempt < itemAttempts:
			select {
			case <-time.After(l.backoff * time.Duration(attempt)):
				continue
			case <-ctx.Done():
				return
			}
		}

		l.logger.Error("Failed to record sale for order item",
			zap.String("order_id", orderID),
			zap.String("product_id", input.ProductID),
			zap.String("request_id", input.RequestID),
			zap.Error(err),
		)
		return
	}
}
