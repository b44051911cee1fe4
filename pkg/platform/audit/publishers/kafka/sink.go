// Package kafka publishes audit events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "storefront/pkg/platform/audit"
)

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("kafka audit sink: circuit open")

// Producer is the slice of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink writes events as JSON records keyed by tenant so one tenant's events
// stay ordered within a partition.
type Sink struct {
	producer Producer
	topic    string
	timeout  time.Duration
	breaker  *breaker
}

type Option func(*Sink)

func WithTimeout(d time.Duration) Option {
	return func(s *Sink) { s.timeout = d }
}

func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Sink) { s.breaker = newBreaker(threshold, cooldown) }
}

func NewSink(producer Producer, topic string, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    topic,
		timeout:  2 * time.Second,
		breaker:  newBreaker(5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.allow() {
		return ErrCircuitOpen
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.TenantID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.breaker.failure()
		return fmt.Errorf("produce audit event: %w", err)
	}
	s.breaker.success()
	return nil
}
