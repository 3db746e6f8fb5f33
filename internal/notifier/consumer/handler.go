package consumer

import (
	"context"
	"salonbook/internal/notifier/core"
	"salonbook/pkg/kafka"
	"salonbook/pkg/logger"
)

// NewHandler routes appointment events to the flow named after their type.
// Events without a flow are acknowledged and dropped.
func NewHandler(engine *core.Engine, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		e, err := kafka.DecodeEvent(msg)
		if err != nil {
			return err
		}

		if !engine.Has(e.Type) {
			log.Debug("Skipping event without flow", "event_id", e.ID, "type", e.Type)
			return nil
		}

		var payload kafka.AppointmentPayload
		if err := e.DecodeData(&payload); err != nil {
			return err
		}

		return engine.Run(ctx, e.Type, core.NewFlowContext(e, payload))
	}
}
