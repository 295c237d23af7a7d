package repository

import (
	"context"

	"TradeDesk/internal/domain/repository"
	pkgkafka "TradeDesk/pkg/kafka"
)

// KafkaPublisher emits executed-order events for downstream consumers
// (analytics, alerting). Keyed by symbol so per-symbol ordering holds.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	if topic == "" {
		topic = "trading.orders"
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishOrder(ctx context.Context, rec *repository.OrderRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
