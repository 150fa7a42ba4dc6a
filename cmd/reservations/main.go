package main

import (
	"campusbook/internal/reservations/events"
	reservationshandler "campusbook/internal/reservations/handler"
	reservationsmetrics "campusbook/internal/reservations/metrics"
	reservationsrepo "campusbook/internal/reservations/repository"
	reservationsservice "campusbook/internal/reservations/service"
	reservationsvalidator "campusbook/internal/reservations/validator"
	resourceshandler "campusbook/internal/resources/handler"
	resourcesrepo "campusbook/internal/resources/repository"
	resourcesservice "campusbook/internal/resources/service"
	resourcesvalidator "campusbook/internal/resources/validator"
	"campusbook/pkg/app"
	"campusbook/pkg/config"
	"campusbook/pkg/health"
	"campusbook/pkg/kafka"
	kafka_config "campusbook/pkg/kafka/config"
	kafkamiddleware "campusbook/pkg/kafka/middleware"
	"campusbook/pkg/middleware"
)

const ServiceName = "reservations"

type services struct {
	resources    resourcesservice.ResourceService
	reservations reservationsservice.ReservationService
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}
	defer cfg.GracefulShutdown()

	if cfg.MetricsEnabled {
		reservationsmetrics.Register()
		middleware.RegisterMetrics()
	}

	cfg.Log.Info("Starting Reservations service")

	publisher, producer := initPublisher(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	svc := initServices(cfg, publisher)

	healthHandler := health.NewHealthHandler(cfg.Log).AddCheck("mongo", health.MongoCheck(cfg.Client.Mongo))
	var idempotencyStore middleware.IdempotencyStore
	if cfg.Client.Redis != nil {
		healthHandler.AddCheck("redis", health.RedisCheck(cfg.Client.Redis))
		idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL, cfg.Log)
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		healthHandler,
		idempotencyStore,
		resourceshandler.NewResourceHandler(svc.resources, cfg.Log),
		reservationshandler.NewReservationHandler(
			svc.reservations,
			reservationsvalidator.NewReservationValidator(cfg.Log),
			cfg.Location(),
			cfg.Log,
		),
	)
	serverApp.AddWorker(reservationsservice.NewSweeper(svc.reservations, cfg.CompletionSweepInterval, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) services {
	resourceRepo := resourcesrepo.NewMongoResourceRepository(cfg)
	reservationRepo := reservationsrepo.NewMongoReservationRepository(cfg)

	var locker reservationsrepo.ReservationLocker
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		locker = reservationsrepo.NewRedisReservationLocker(cfg.Client.Redis, "campusbook:")
	default:
		locker = reservationsrepo.NewMongoReservationLocker(cfg)
	}

	resourceService := resourcesservice.NewResourceService(
		resourceRepo,
		reservationRepo,
		resourcesvalidator.NewResourceValidator(cfg.Log),
		cfg,
	)
	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		resourceRepo,
		locker,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation services initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.LockBackend,
	)
	return services{resources: resourceService, reservations: reservationService}
}

func initPublisher(cfg *config.Config) (events.Publisher, *kafka.Producer) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events will not be published")
		return events.NopPublisher(), nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.KafkaReservationTopic, cfg.KafkaReservationDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	if cfg.MetricsEnabled {
		kafkamiddleware.RegisterMetrics()
		producer.Use(kafkamiddleware.MetricsProducerMiddleware())
	}

	return events.NewKafkaPublisher(producer, cfg.Log, kafkaCfg.ProducerWriteTimeout), producer
}
