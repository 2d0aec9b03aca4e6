package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes structured events to a Kafka/Redpanda topic,
// the same transport the teacher's pkg/event.KafkaBus uses for its
// atom-events bus — here repurposed to carry engine lifecycle and
// diagnostic events instead of calculation-engine notifications.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink connects a low-latency, batched writer to brokers/topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    200,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Compression:  kafka.Snappy,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Printf("[KAFKA-EVENT-ERROR] "+msg, args...)
		}),
	}
	return &KafkaSink{writer: w}
}

// Emit marshals the event as JSON and enqueues it for async delivery.
// Because the writer is async, this returns as soon as the event is
// buffered; delivery failures surface only through ErrorLogger.
func (k *KafkaSink) Emit(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("[KAFKA-EVENT-ERROR] marshal failed: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(e.CorrelationID),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "category", Value: []byte(e.Category)},
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[KAFKA-EVENT-ERROR] %s", fmt.Errorf("write failed: %w", err))
	}
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
