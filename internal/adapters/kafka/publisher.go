package kafkaadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Topics names the topics events are written to.
type Topics struct {
	Routes    string
	Positions string
}

// Publisher implements ports.EventPublisher on Kafka. It feeds consumers
// outside the service (trip analytics, audit) with the same events NATS
// carries. Messages are keyed by session or device so each one stays ordered
// within its partition.
type Publisher struct {
	writer MessageWriter
	topics Topics
}

// NewPublisher creates a publisher writing to brokers.
func NewPublisher(brokers []string, topics Topics) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, topics)
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, topics Topics) *Publisher {
	return &Publisher{writer: w, topics: topics}
}

// PublishRouteUpdate writes an applied route keyed by session id.
func (p *Publisher) PublishRouteUpdate(ctx context.Context, update *domain.RouteUpdate) error {
	return p.write(ctx, p.topics.Routes, update.SessionID, update)
}

// PublishPosition writes a device fix keyed by device id.
func (p *Publisher) PublishPosition(ctx context.Context, deviceID string, sample *domain.LocationSample) error {
	return p.write(ctx, p.topics.Positions, deviceID, positionEvent{DeviceID: deviceID, Sample: sample})
}

func (p *Publisher) write(ctx context.Context, topic, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", topic, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

type positionEvent struct {
	DeviceID string                 `json:"device_id"`
	Sample   *domain.LocationSample `json:"sample"`
}
