package sender

import (
	"context"
	"salonbook/pkg/logger"
	"salonbook/pkg/metrics"
)

// LogSender only logs messages. It is used when Twilio is not configured.
type LogSender struct {
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

func (s LogSender) Send(ctx context.Context, to, body string) (string, error) {
	s.Log.Info("Notification (dry run)", "to", to, "body", body)
	s.Metrics.Notification(ChannelLog, nil)
	return ChannelLog, nil
}
