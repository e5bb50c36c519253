package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes order and loyalty lifecycle events. Publishing is
// best-effort: the order of record lives in the document store and a
// failed publish is logged, never propagated into the main flow.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

func (p *Producer) PublishOrderCreated(orderID, orderNumber, userID, shopID string, amount int64, itemCount int) {
	p.publish(orderID, OrderCreatedEvent{
		EventID:     uuid.New().String(),
		Type:        TypeOrderCreated,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		UserID:      userID,
		ShopID:      shopID,
		Amount:      amount,
		ItemCount:   itemCount,
		Timestamp:   time.Now().UTC(),
	})
}

func (p *Producer) PublishOrderPaid(orderID, userID, paymentIntentID, source string, amount int64) {
	p.publish(orderID, OrderPaidEvent{
		EventID:         uuid.New().String(),
		Type:            TypeOrderPaid,
		OrderID:         orderID,
		UserID:          userID,
		Amount:          amount,
		PaymentIntentID: paymentIntentID,
		Source:          source,
		Timestamp:       time.Now().UTC(),
	})
}

func (p *Producer) PublishPointsEarned(userID, orderID string, points int64) {
	p.publish(userID, PointsEarnedEvent{
		EventID:   uuid.New().String(),
		Type:      TypePointsEarned,
		UserID:    userID,
		OrderID:   orderID,
		Points:    points,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Producer) PublishRedemption(eventType, redemptionID, userID, itemID string, quantity int, totalPoints int64) {
	p.publish(redemptionID, RedemptionEvent{
		EventID:      uuid.New().String(),
		Type:         eventType,
		RedemptionID: redemptionID,
		UserID:       userID,
		ItemID:       itemID,
		Quantity:     quantity,
		TotalPoints:  totalPoints,
		Timestamp:    time.Now().UTC(),
	})
}

func (p *Producer) publish(key string, event any) {
	if p == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("key", key),
			zap.Error(err))
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
