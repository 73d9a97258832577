package main

import (
	"context"

	"eatme/internal/loyalty"
	"eatme/internal/pricing"
	"eatme/internal/reservations/handler"
	"eatme/internal/reservations/repository"
	"eatme/internal/reservations/service"
	"eatme/internal/reservations/validator"
	"eatme/pkg/app"
	"eatme/pkg/config"
	"eatme/pkg/events"
	kafka_config "eatme/pkg/kafka/config"
	kafka_middleware "eatme/pkg/kafka/middleware"
	"eatme/pkg/storage"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	metrics := kafka_middleware.NewMetrics()
	publisher, closePublisher := events.NewPublisher(kafkaCfg, ServiceName, cfg.Log, metrics)

	pricingStore := pricing.NewStore(
		pricing.NewMongoSource(cfg.Client.MongoDB),
		pricing.NewRedisCache(cfg.Client.Redis),
		cfg.Log,
		cfg.PricingRetryBackoff,
	)
	pricingStore.Start(ctx)

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg, pricingStore, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.OnShutdown(func(context.Context) {
		cancel()
		<-pricingStore.Done()
		closePublisher()
		cfg.Log.Info("Kafka publish metrics", "metrics", metrics.Snapshot())
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, pricingStore *pricing.Store, publisher events.Publisher) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	loyaltyRepo := loyalty.NewMongoRepository(cfg.Client.MongoDB, cfg.ReadTimeout, cfg.WriteTimeout)

	reservationService := service.NewReservationService(
		reservationRepo,
		loyaltyRepo,
		storage.New(cfg.Client.Redis, 0),
		pricingStore,
		reservationValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName, "durable_store", cfg.Client.Redis != nil)
	return reservationService
}
