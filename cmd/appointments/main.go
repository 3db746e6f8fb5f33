package main

import (
	"salonbook/internal/appointments/handler"
	"salonbook/internal/appointments/repository"
	"salonbook/internal/appointments/service"
	"salonbook/internal/appointments/validator"
	"salonbook/internal/availability"
	professionalsrepository "salonbook/internal/professionals/repository"
	salonsrepository "salonbook/internal/salons/repository"
	"salonbook/pkg/app"
	"salonbook/pkg/config"
	"salonbook/pkg/kafka"
	kafka_config "salonbook/pkg/kafka/config"
	kafka_middleware "salonbook/pkg/kafka/middleware"
	"salonbook/pkg/metrics"
	"salonbook/pkg/sealer"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(ServiceName)
	}

	cfg.Log.Info("Starting Appointments service")
	publisher, closePublisher := initPublisher(cfg, m)
	appointmentService := initServices(cfg, publisher, m)

	serverApp := app.NewApplication(cfg, m, handler.NewAppointmentHandler(appointmentService, cfg.Log, cfg.JWTSecret))
	serverApp.OnShutdown(closePublisher)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher kafka.Publisher, m *metrics.Metrics) service.AppointmentService {
	appointmentService := service.NewAppointmentService(service.Deps{
		Repo:          repository.NewMongoAppointmentRepository(cfg),
		Locks:         repository.NewMongoSlotLockRepository(cfg),
		Professionals: professionalsrepository.NewMongoProfessionalRepository(cfg),
		Salons:        salonsrepository.NewMongoSalonRepository(cfg),
		Validator:     validator.NewAppointmentValidator(cfg.Log),
		Resolver:      availability.NewResolver(loadDayNames(cfg), cfg.SlotGranularity),
		Sealer:        initSealer(cfg),
		Publisher:     publisher,
		Metrics:       m,
	}, cfg)

	cfg.Log.Info("Appointment service initialized", "database", cfg.MongoDatabaseName)
	return appointmentService
}

// initPublisher returns a no-op publisher when Kafka is disabled.
func initPublisher(cfg *config.Config, m *metrics.Metrics) (kafka.Publisher, func()) {
	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kcfg.Enabled {
		cfg.Log.Warn("Kafka disabled, appointment events will not be published")
		return kafka.NoopPublisher{Log: cfg.Log}, func() {}
	}
	kcfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kcfg, kcfg.Topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducer(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducer(m))

	return producer, func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

// initSealer returns nil when no key is configured; manage tokens are then
// not issued.
func initSealer(cfg *config.Config) *sealer.Sealer {
	if cfg.ManageTokenKey == "" {
		cfg.Log.Warn("MANAGE_TOKEN_KEY not set, manage tokens disabled")
		return nil
	}
	s, err := sealer.New(cfg.ManageTokenKey)
	if err != nil {
		cfg.Log.Fatal("Invalid manage token key", "error", err)
	}
	return s
}

func loadDayNames(cfg *config.Config) *availability.DayNames {
	if cfg.WeekdayTableFile == "" {
		return availability.DefaultDayNames()
	}
	names, err := availability.LoadDayNames(cfg.WeekdayTableFile)
	if err != nil {
		cfg.Log.Fatal("Failed to load weekday table", "file", cfg.WeekdayTableFile, "error", err)
	}
	cfg.Log.Info("Weekday table loaded", "file", cfg.WeekdayTableFile, "aliases", names.Len())
	return names
}
