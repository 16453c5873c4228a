// Package events publishes domain events (dispense completions, reorder
// signals) to Kafka with franz-go. Publishing is best-effort: a failed send
// is logged, never propagated into the dispensing flow.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic names.
const (
	TopicDispense = "pharmacy.dispense"
	TopicReorder  = "pharmacy.reorder"
)

// Publisher emits one domain event to a topic, keyed for partition affinity.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any)
	Close()
}

// KafkaPublisher produces events with franz-go.
type KafkaPublisher struct {
	client *kgo.Client
	log    zerolog.Logger
}

func NewKafkaPublisher(brokers []string, log zerolog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RecordRetries(3),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, log: log}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("marshal event")
		return
	}
	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.log.Error().Err(err).Str("topic", topic).Str("key", key).
				Msg("publish event failed")
		}
	})
}

func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.log.Warn().Err(err).Msg("flush pending events")
	}
	p.client.Close()
}

// LogPublisher writes events to the log, used when no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, topic, key string, payload any) {
	p.log.Info().Str("topic", topic).Str("key", key).
		Interface("payload", payload).Msg("event")
}

func (p *LogPublisher) Close() {}
