// Package kafka wraps the franz-go client used by the access log relay.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sidesa/internal/platform/config"
)

// Producer publishes to a single topic with synchronous acks.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to the brokers. It returns nil when no brokers are configured.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AuditTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.AuditTopic}, nil
}

// EnsureTopic creates the topic if it does not exist.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Publish produces one record and waits for the broker ack.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	for k, v := range headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and closes the client.
func (p *Producer) Close() {
	p.client.Close()
}
