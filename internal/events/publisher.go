package events

import (
	"context"
	"sync"

	"staylock/pkg/kafka"
	"staylock/pkg/logger"
	"staylock/pkg/model"
)

const (
	SchemaVersion = "1"
	Source        = "reservations"
)

// Publisher emits reservation lifecycle events. Publishing is best effort:
// callers log failures and carry on, because the reservation row is the
// source of truth.
type Publisher interface {
	Publish(ctx context.Context, evt model.ReservationEvent) error
}

type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessageProducer
}

func NewKafkaPublisher(producer MessageProducer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt model.ReservationEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(evt.PaymentReference).
		WithValue(evt).
		WithEventType(evt.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(evt.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

type noopPublisher struct {
	log *logger.Logger
}

// NewNoopPublisher is used when Kafka is disabled. Events are only logged.
func NewNoopPublisher(log *logger.Logger) Publisher {
	return &noopPublisher{log: log}
}

func (p *noopPublisher) Publish(_ context.Context, evt model.ReservationEvent) error {
	p.log.Debug("Reservation event", "type", evt.Type, "payment_reference", evt.PaymentReference)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []model.ReservationEvent
	Err    error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, evt model.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []model.ReservationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ReservationEvent(nil), r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
