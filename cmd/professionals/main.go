package main

import (
	"salonbook/internal/availability"
	"salonbook/internal/professionals/handler"
	"salonbook/internal/professionals/repository"
	"salonbook/internal/professionals/service"
	"salonbook/internal/professionals/validator"
	salonsrepository "salonbook/internal/salons/repository"
	"salonbook/pkg/app"
	"salonbook/pkg/config"
	"salonbook/pkg/metrics"
)

const ServiceName = "professionals"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Professionals service")
	professionalService := initServices(cfg)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(ServiceName)
	}
	serverApp := app.NewApplication(cfg, m, handler.NewProfessionalHandler(professionalService, cfg.Log, cfg.JWTSecret))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ProfessionalService {
	professionalService := service.NewProfessionalService(
		repository.NewMongoProfessionalRepository(cfg),
		salonsrepository.NewMongoSalonRepository(cfg),
		validator.NewProfessionalValidator(cfg.Log),
		loadDayNames(cfg),
		cfg,
	)

	cfg.Log.Info("Professional service initialized", "database", cfg.MongoDatabaseName)
	return professionalService
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
