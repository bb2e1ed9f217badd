package usecase

import (
	"context"
	"encoding/json"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
)

// KafkaEventsHandler consumes published crash events and persists them, so a
// consumer-side deployment can mirror events produced elsewhere.
type KafkaEventsHandler struct {
	topic   string
	store   drepo.CandleStore
	metrics drepo.Metrics
}

func NewKafkaEventsHandler(topic string, store drepo.CandleStore, metrics drepo.Metrics) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

// incoming message schema matches KafkaEventPublisher output
func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol     string                             `json:"symbol"`
		Date       string                             `json:"date"`
		Index      int                                `json:"index"`
		CrashScore *float64                           `json:"crashScore"`
		Severity   float64                            `json:"severity"`
		Metrics    map[models.CrashFeatureKey]float64 `json:"metrics"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" || m.Date == "" {
		h.metrics.RecordError("consumer_invalid")
		return nil
	}

	event := models.CrashEvent{
		Index:      m.Index,
		Symbol:     m.Symbol,
		Date:       m.Date,
		CrashScore: m.CrashScore,
		Severity:   m.Severity,
		Metrics:    m.Metrics,
	}
	if err := h.store.StoreEvents(ctx, m.Symbol, []models.CrashEvent{event}); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}
