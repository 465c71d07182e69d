// Package changelog appends dashboard actions to a Kafka topic so
// downstream systems (ERP sync, audit) can follow dispatches and
// verifications.
package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"salesops-backend/internal/timeutil"
)

// Entry kinds.
const (
	KindDispatched         = "dispatched"
	KindVerificationQueued = "verification_requested"
	KindVerified           = "verified"
	KindCancelled          = "cancelled"
)

// Entry is one changelog record. Key is the composite identity (or order
// number for cancellations) and doubles as the Kafka partition key.
type Entry struct {
	Kind    string    `json:"kind"`
	Key     string    `json:"key"`
	OrderNo string    `json:"order_no"`
	Payload any       `json:"payload,omitempty"`
	TS      time.Time `json:"ts"`
}

type Writer interface {
	Append(ctx context.Context, entries ...Entry) error
}

// Nop discards entries. Used when no brokers are configured.
type Nop struct{}

func (Nop) Append(context.Context, ...Entry) error { return nil }

// KafkaWriter publishes entries to a Kafka topic.
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaWriterWith is only for tests to inject a fake writer.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}

// New returns a Kafka writer when brokers are configured and Nop otherwise.
func New(brokers []string, topic string) Writer {
	if len(brokers) == 0 || topic == "" {
		return Nop{}
	}
	return NewKafkaWriter(brokers, topic)
}

func (k *KafkaWriter) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		if e.TS.IsZero() {
			e.TS = timeutil.Now()
		}
		b, err := json.Marshal(&e)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(e.Key), Value: b})
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the underlying writer when it supports it.
func (k *KafkaWriter) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
