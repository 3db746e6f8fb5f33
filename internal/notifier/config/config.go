package notifier_config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config carries the notifier settings that the shared service config
// does not cover.
type Config struct {
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioPhoneNumber    string
	TwilioWhatsAppNumber string

	SalonsURL        string
	ProfessionalsURL string
	AppointmentsURL  string

	ReminderCron    string
	ReminderTimeout time.Duration
	MaxConcurrency  int
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnvStr(EnvReminderTimeout, DefaultReminderTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvReminderTimeout, err)
	}

	cfg := &Config{
		TwilioAccountSID:     os.Getenv(EnvTwilioAccountSID),
		TwilioAuthToken:      os.Getenv(EnvTwilioAuthToken),
		TwilioPhoneNumber:    os.Getenv(EnvTwilioPhoneNumber),
		TwilioWhatsAppNumber: os.Getenv(EnvTwilioWhatsAppNumber),

		SalonsURL:        getEnvStr(EnvSalonsURL, DefaultSalonsURL),
		ProfessionalsURL: getEnvStr(EnvProfessionalsURL, DefaultProfessionalsURL),
		AppointmentsURL:  getEnvStr(EnvAppointmentsURL, DefaultAppointmentsURL),

		ReminderCron:    getEnvStr(EnvReminderCron, DefaultReminderCron),
		ReminderTimeout: timeout,
		MaxConcurrency:  DefaultMaxConcurrency,
	}
	if raw := os.Getenv(EnvMaxConcurrency); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMaxConcurrency, err)
		}
		cfg.MaxConcurrency = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TwilioEnabled is false when credentials are missing; messages are then
// only logged.
func (cfg *Config) TwilioEnabled() bool {
	return cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != ""
}

func (cfg *Config) Validate() error {
	var errs []string

	for name, raw := range map[string]string{
		EnvSalonsURL:        cfg.SalonsURL,
		EnvProfessionalsURL: cfg.ProfessionalsURL,
		EnvAppointmentsURL:  cfg.AppointmentsURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s must be an absolute URL, got: %q", name, raw))
		}
	}

	if _, err := cron.ParseStandard(cfg.ReminderCron); err != nil {
		errs = append(errs, fmt.Sprintf("%s is not a valid cron expression: %v", EnvReminderCron, err))
	}
	if cfg.ReminderTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", EnvReminderTimeout, cfg.ReminderTimeout))
	}
	if cfg.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Sprintf("%s must be positive, got: %d", EnvMaxConcurrency, cfg.MaxConcurrency))
	}
	if cfg.TwilioEnabled() && cfg.TwilioPhoneNumber == "" && cfg.TwilioWhatsAppNumber == "" {
		errs = append(errs, "Twilio credentials are set but no sender number is configured")
	}

	if len(errs) > 0 {
		return fmt.Errorf("notifier configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
