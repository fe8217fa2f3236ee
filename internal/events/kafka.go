package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes registration events to a Kafka topic, keyed by tenant so a
// tenant's transitions stay ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (k *Kafka) PublishStatusChanged(ctx context.Context, event StatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.TenantID.String()),
		Value: payload,
	}
	// Async produce: the reconciler must not block on broker latency. The
	// callback only logs; losing an event is acceptable, blocking a status
	// request is not.
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Error("publish status event failed",
				"tenant_id", event.TenantID.String(),
				"error", err,
			)
		}
	})
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
