package repository

import (
	"context"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	pkgkafka "CrashLens/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka. Events for one
// symbol share a key so consumers see them in detection order.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) drepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, symbol string, events []models.CrashEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key: []byte(symbol),
			Value: map[string]interface{}{
				"symbol":     symbol,
				"date":       e.Date,
				"index":      e.Index,
				"crashScore": e.CrashScore,
				"severity":   e.Severity,
				"metrics":    e.Metrics,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
