package main

import (
	"salonbook/internal/salons/handler"
	"salonbook/internal/salons/repository"
	"salonbook/internal/salons/service"
	"salonbook/internal/salons/validator"
	"salonbook/pkg/app"
	"salonbook/pkg/config"
	"salonbook/pkg/metrics"
)

const ServiceName = "salons"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Salons service")
	salonService := initServices(cfg)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(ServiceName)
	}
	serverApp := app.NewApplication(cfg, m, handler.NewSalonHandler(salonService, cfg.Log, cfg.JWTSecret))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.SalonService {
	salonValidator := validator.NewSalonValidator(cfg.Log)
	salonRepo := repository.NewMongoSalonRepository(cfg)
	salonService := service.NewSalonService(
		salonRepo,
		salonValidator,
		cfg,
	)

	cfg.Log.Info("Salon service initialized", "database", cfg.MongoDatabaseName)
	return salonService
}
