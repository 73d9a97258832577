package main

import (
	"context"

	catalogrepo "eatme/internal/catalog/repository"
	catalogservice "eatme/internal/catalog/service"
	catalogvalidator "eatme/internal/catalog/validator"
	"eatme/internal/loyalty"
	"eatme/internal/orders/handler"
	"eatme/internal/orders/repository"
	"eatme/internal/orders/service"
	"eatme/internal/orders/validator"
	"eatme/pkg/app"
	"eatme/pkg/config"
	"eatme/pkg/events"
	kafka_config "eatme/pkg/kafka/config"
	kafka_middleware "eatme/pkg/kafka/middleware"
	"eatme/pkg/sealer"
	"eatme/pkg/storage"
)

const ServiceName = "orders"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.CheckoutSealKey == "" {
		cfg.Log.Fatal("CHECKOUT_SEAL_KEY is required for the orders service")
	}
	cfg.SetMongo()
	cfg.SetRedis()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	metrics := kafka_middleware.NewMetrics()
	publisher, closePublisher := events.NewPublisher(kafkaCfg, ServiceName, cfg.Log, metrics)

	cfg.Log.Info("Starting Orders service")
	orderService := initServices(cfg, publisher)

	if cfg.PaymentWebhookSecret == "" {
		cfg.Log.Warn("PAYMENT_WEBHOOK_SECRET not set, payment webhook is disabled")
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewOrderHandler(orderService, cfg.PaymentWebhookSecret, cfg.Log))
	serverApp.OnShutdown(func(context.Context) {
		closePublisher()
		cfg.Log.Info("Kafka publish metrics", "metrics", metrics.Snapshot())
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.OrderService {
	checkoutSealer, err := sealer.New(cfg.CheckoutSealKey)
	if err != nil {
		cfg.Log.Fatal("Failed to create checkout sealer", "error", err)
	}

	menu := catalogservice.NewMenuService(
		catalogrepo.NewMongoMenuRepository(cfg),
		nil,
		catalogvalidator.NewMenuValidator(cfg.Log),
		cfg,
	)

	orderService := service.NewOrderService(
		repository.NewMongoOrderRepository(cfg),
		menu,
		loyalty.NewMongoRepository(cfg.Client.MongoDB, cfg.ReadTimeout, cfg.WriteTimeout),
		storage.New(cfg.Client.Redis, 0),
		checkoutSealer,
		validator.NewOrderValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Order service initialized",
		"database", cfg.MongoDatabaseName,
		"durable_store", cfg.Client.Redis != nil,
		"redemption_policy", cfg.CartRedemptionPolicy,
	)
	return orderService
}
