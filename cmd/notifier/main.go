package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"eatme/internal/notifier"
	"eatme/pkg/config"
	"eatme/pkg/kafka"
	kafka_config "eatme/pkg/kafka/config"
	kafka_middleware "eatme/pkg/kafka/middleware"
	"eatme/pkg/sms"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.SMSEnabled() || cfg.AdminPhone == "" {
		cfg.Log.Fatal("SMS_BASE_URL, SMS_API_KEY and ADMIN_PHONE are required for the notifier")
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	sender := sms.NewClient(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSTimeout)
	n := notifier.New(sender, cfg.AdminPhone, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.ReservationsTopic,
		kafkaCfg.NotifierGroupID,
		kafkaCfg.ReservationsDLQTopic,
		n.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting Notifier", "topic", kafkaCfg.ReservationsTopic, "group_id", kafkaCfg.NotifierGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped", "metrics", metrics.Snapshot())
}
