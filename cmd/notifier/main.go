package main

import (
	"context"
	"errors"
	notifier_config "salonbook/internal/notifier/config"
	"salonbook/internal/notifier/consumer"
	"salonbook/internal/notifier/core"
	"salonbook/internal/notifier/flows"
	"salonbook/internal/notifier/reminder"
	"salonbook/internal/notifier/sender"
	"salonbook/pkg/app"
	"salonbook/pkg/client"
	"salonbook/pkg/config"
	"salonbook/pkg/kafka"
	kafka_config "salonbook/pkg/kafka/config"
	kafka_middleware "salonbook/pkg/kafka/middleware"
	"salonbook/pkg/metrics"
	"salonbook/pkg/middleware"
	"time"
)

const (
	ServiceName = "notifier"

	serviceTokenTTL = 5 * time.Minute
)

func main() {
	cfg := config.Load(ServiceName)

	ncfg, err := notifier_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid notifier configuration", "error", err)
	}
	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kcfg.Enabled {
		cfg.Log.Fatal("The notifier requires Kafka, set KAFKA_ENABLED=true")
	}
	kcfg.LogConfiguration(cfg.Log)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(ServiceName)
	}

	salons := client.NewSalonClient(ncfg.SalonsURL)
	professionals := client.NewProfessionalClient(ncfg.ProfessionalsURL)
	appointments := client.NewAppointmentClient(ncfg.AppointmentsURL)
	if cfg.JWTSecret != "" {
		appointments.HTTP().WithTokenSource(func() (string, error) {
			return middleware.IssueToken(cfg.JWTSecret, ServiceName, "", serviceTokenTTL)
		})
	}

	engine := core.NewEngine(core.NewLimiter(ncfg.MaxConcurrency), cfg.Log, flows.Flows(flows.Deps{
		Salons:        salons,
		Professionals: professionals,
		Sender:        initSender(cfg, ncfg, m),
		Fallback:      cfg.Location(),
		Log:           cfg.Log,
	})...)
	cfg.Log.Info("Notification flows registered", "flows", engine.Flows())

	eventConsumer, err := kafka.NewConsumer(kcfg, consumer.NewHandler(engine, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	eventConsumer.Use(kafka_middleware.LoggingConsumer(cfg.Log))
	eventConsumer.Use(kafka_middleware.MetricsConsumer(m))

	producer, err := kafka.NewProducer(kcfg, kcfg.Topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducer(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducer(m))

	scheduler := reminder.NewScheduler(cfg.Location(), cfg.Log)
	job := &reminder.Job{
		Salons:       salons,
		Appointments: appointments,
		Publisher:    producer,
		Log:          cfg.Log,
	}
	if err := scheduler.Schedule(ncfg.ReminderCron, job, ncfg.ReminderTimeout); err != nil {
		cfg.Log.Fatal("Invalid reminder schedule", "cron", ncfg.ReminderCron, "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := eventConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()
	scheduler.Start()

	serverApp := app.NewApplication(cfg, m)
	serverApp.OnShutdown(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer stop()
		scheduler.Stop(stopCtx)

		cancel()
		if err := eventConsumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	serverApp.Run()
}

func initSender(cfg *config.Config, ncfg *notifier_config.Config, m *metrics.Metrics) flows.Sender {
	if !ncfg.TwilioEnabled() {
		cfg.Log.Warn("Twilio credentials not set, notifications will only be logged")
		return sender.LogSender{Log: cfg.Log, Metrics: m}
	}
	return sender.NewTwilioSender(sender.TwilioConfig{
		AccountSID:     ncfg.TwilioAccountSID,
		AuthToken:      ncfg.TwilioAuthToken,
		PhoneNumber:    ncfg.TwilioPhoneNumber,
		WhatsAppNumber: ncfg.TwilioWhatsAppNumber,
	}, cfg.Log, m)
}
