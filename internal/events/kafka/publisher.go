package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

const DefaultTopic = "record_events"

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends record events to Kafka, keyed by organization so one
// owner's events stay ordered within a partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher builds a publisher for brokers. compression is one of
// "", "none", "gzip", "snappy", "lz4" or "zstd".
func NewPublisher(brokers []string, topic, compression string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Compression:  codec,
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

func compressionCodec(name string) (kafka.Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("kafka: unknown compression %q", name)
}

func (p *Publisher) Notify(ctx context.Context, event events.RecordEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.OrganizationKey),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.Type)},
			},
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.NotificationSink = (*Publisher)(nil)
