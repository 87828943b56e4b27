package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher ships audit events to a Kafka topic, keyed by treasury so
// per-treasury ordering is preserved across partitions.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the given brokers and ensures the audit topic
// exists. Returns nil if brokers is empty (Kafka not configured).
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaPublisher{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	topics, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, topic); err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	return nil
}

// Emit produces the event synchronously so a confirmed governance action is
// never acknowledged before its audit record is durable.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = Action(event.Action).Category()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.TreasuryID.String()),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
