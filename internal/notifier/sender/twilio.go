package sender

import (
	"context"
	"errors"
	"net/http"
	"salonbook/pkg/kafka"
	"salonbook/pkg/logger"
	"salonbook/pkg/metrics"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelLog      = "log"

	whatsappPrefix = "whatsapp:"
)

type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

type TwilioSender struct {
	api     messageAPI
	cfg     TwilioConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewTwilioSender(cfg TwilioConfig, log *logger.Logger, m *metrics.Metrics) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, log, m)
}

func newTwilioSender(api messageAPI, cfg TwilioConfig, log *logger.Logger, m *metrics.Metrics) *TwilioSender {
	return &TwilioSender{api: api, cfg: cfg, log: log, metrics: m}
}

// Channel is WhatsApp for E.164 numbers when a WhatsApp sender is
// configured, SMS otherwise.
func (s *TwilioSender) Channel(to string) string {
	if strings.HasPrefix(to, "+") && s.cfg.WhatsAppNumber != "" {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	channel := s.Channel(to)
	from := s.cfg.PhoneNumber
	if channel == ChannelWhatsApp {
		from = whatsappPrefix + s.cfg.WhatsAppNumber
		to = whatsappPrefix + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	s.metrics.Notification(channel, err)
	if err != nil {
		s.log.Error("Twilio send failed",
			"channel", channel,
			"to", to,
			"error", err,
		)
		return channel, classify(err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.log.Debug("Twilio message accepted", "channel", channel, "sid", sid)
	return channel, nil
}

// classify treats rejected requests as permanent. Throttling and server
// errors are retried.
func classify(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) &&
		restErr.Status >= 400 && restErr.Status < 500 &&
		restErr.Status != http.StatusTooManyRequests {
		return kafka.NewPermanentError("twilio rejected message", err)
	}
	return kafka.NewTransientError("twilio send", err)
}
