package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisherNotify(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	ev := events.RecordEvent{
		OrganizationKey: "o1",
		Kind:            models.KindFinance,
		RecordID:        "r1",
		Type:            events.RecordPending,
		OccurredAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Notify(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "o1", string(w.msgs[0].Key))
	assert.Equal(t, "record_pending", string(w.msgs[0].Headers[0].Value))

	var back events.RecordEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &back))
	assert.Equal(t, ev, back)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher([]string{"localhost:9092"}, "", "zstd")
	require.NoError(t, err)
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, kw.Topic)
	assert.Equal(t, kafka.Zstd, kw.Compression)

	_, err = NewPublisher(nil, "t", "")
	assert.Error(t, err)
	_, err = NewPublisher([]string{"localhost:9092"}, "t", "brotli")
	assert.Error(t, err)
}
