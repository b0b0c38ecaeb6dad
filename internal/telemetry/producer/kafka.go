// Package producer publishes telemetry events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"rederly/client/internal/logging"
	"rederly/client/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// Producer emits telemetry events to a message bus. Callers use it best-effort.
type Producer interface {
	telemetry.EventEmitter
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaProducer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer writes one message per event. Messages are keyed by user so a user's events
// stay ordered within a partition; anonymous events are keyed by event type.
type KafkaProducer struct {
	writer messageWriter
	topic  string
	logger logrus.FieldLogger
}

// NewKafkaProducer returns a producer for topic, or nil when brokers or topic is empty.
func NewKafkaProducer(brokers []string, topic string, logger logrus.FieldLogger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 20 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, topic: topic, logger: logging.Component(logger, "kafka")}
}

func messageFor(event *telemetry.Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	key := event.EventType
	if event.UserID != 0 {
		key = "user:" + strconv.Itoa(event.UserID)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}, nil
}

// Emit writes event as JSON. Safe on a nil producer.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	msg, err := messageFor(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"topic": p.topic, "event_type": event.EventType}).Warn("kafka emit failed")
		return err
	}
	return nil
}

// Close flushes and closes the writer. Safe on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
