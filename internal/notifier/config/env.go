package notifier_config

const (
	EnvTwilioAccountSID     = "TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken      = "TWILIO_AUTH_TOKEN"
	EnvTwilioPhoneNumber    = "TWILIO_PHONE_NUMBER"
	EnvTwilioWhatsAppNumber = "TWILIO_WHATSAPP_NUMBER"

	EnvSalonsURL        = "SALONS_API_URL"
	EnvProfessionalsURL = "PROFESSIONALS_API_URL"
	EnvAppointmentsURL  = "APPOINTMENTS_API_URL"

	EnvReminderCron    = "REMINDER_CRON"
	EnvReminderTimeout = "REMINDER_TIMEOUT"
	EnvMaxConcurrency  = "NOTIFIER_MAX_CONCURRENCY"
)

const (
	DefaultSalonsURL        = "http://localhost:8080"
	DefaultProfessionalsURL = "http://localhost:8081"
	DefaultAppointmentsURL  = "http://localhost:8082"

	DefaultReminderCron    = "0 9 * * *"
	DefaultReminderTimeout = "5m"
	DefaultMaxConcurrency  = 40
)
