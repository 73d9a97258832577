package events

import (
	"context"
	"errors"
	"fmt"

	"eatme/pkg/kafka"
	kafka_config "eatme/pkg/kafka/config"
	kafka_middleware "eatme/pkg/kafka/middleware"
	"eatme/pkg/logger"
	"eatme/pkg/middleware"
)

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher routes each event to the topic of its stream.
type KafkaPublisher struct {
	source    string
	producers map[Stream]producer
}

func NewKafkaPublisher(cfg *kafka_config.Config, source string, log *logger.Logger, metrics *kafka_middleware.Metrics) (*KafkaPublisher, error) {
	topics := map[Stream][2]string{
		StreamReservations: {cfg.ReservationsTopic, cfg.ReservationsDLQTopic},
		StreamOrders:       {cfg.OrdersTopic, cfg.OrdersDLQTopic},
	}

	p := &KafkaPublisher{source: source, producers: make(map[Stream]producer, len(topics))}
	for stream, t := range topics {
		prod, err := kafka.NewProducer(cfg, t[0], t[1], log)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create producer for %s: %w", t[0], err)
		}
		prod.Use(kafka_middleware.LoggingProducerMiddleware(log))
		if metrics != nil {
			prod.Use(metrics.ProducerMiddleware())
		}
		p.producers[stream] = prod
	}
	return p, nil
}

// Publish sends evt to its stream's topic. The request id on ctx, if any, travels as
// the correlation id.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	prod, ok := p.producers[evt.Stream]
	if !ok {
		return fmt.Errorf("no producer for event %s", evt.Type)
	}

	msg, err := kafka.NewMessage().
		WithKey(evt.Key).
		WithEventType(evt.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithValue(evt.Payload).
		Build()
	if err != nil {
		return err
	}
	return prod.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	var errs []error
	for _, prod := range p.producers {
		if err := prod.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewPublisher returns a KafkaPublisher when brokers are configured and a NopPublisher
// otherwise. The returned close func is always safe to call.
func NewPublisher(cfg *kafka_config.Config, source string, log *logger.Logger, metrics *kafka_middleware.Metrics) (Publisher, func()) {
	if cfg == nil || !cfg.Enabled() {
		log.Warn("Kafka brokers not configured, domain events are disabled")
		return NopPublisher{}, func() {}
	}

	p, err := NewKafkaPublisher(cfg, source, log, metrics)
	if err != nil {
		log.Error("Failed to create Kafka publisher, domain events are disabled", "error", err)
		return NopPublisher{}, func() {}
	}

	log.Info("Publishing domain events to Kafka", "brokers", cfg.Brokers)
	return p, func() {
		if err := p.Close(); err != nil {
			log.Error("Failed to close Kafka publisher", "error", err)
		}
	}
}
