package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"salonbook/internal/notifier/core"
	"salonbook/pkg/client"
	"salonbook/pkg/kafka"
	"salonbook/pkg/locale"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"time"
)

type SalonFetcher interface {
	GetByID(ctx context.Context, id string) (*model.Salon, error)
}

type ProfessionalFetcher interface {
	GetByID(ctx context.Context, id string) (*model.Professional, error)
}

// Sender delivers body to a phone number and reports the channel used.
type Sender interface {
	Send(ctx context.Context, to, body string) (channel string, err error)
}

type Deps struct {
	Salons        SalonFetcher
	Professionals ProfessionalFetcher
	Sender        Sender
	// Fallback is used when a salon has no usable time zone.
	Fallback *time.Location
	Log      *logger.Logger
}

// Flows returns one flow per appointment event type.
func Flows(d Deps) []core.Flow {
	steps := []core.Step{
		core.NewStep("classify", Classify),
		core.NewStep("load_salon", LoadSalon(d.Salons)),
		core.NewStep("load_professional", LoadProfessional(d.Professionals)),
		core.NewStep("render_message", RenderMessage(d.Fallback)),
		core.NewStep("send_message", SendMessage(d.Sender, d.Log)),
	}
	return []core.Flow{
		{Name: kafka.EventAppointmentCreated, Steps: steps},
		{Name: kafka.EventAppointmentStatusChanged, Steps: steps},
		{Name: kafka.EventAppointmentReminder, Steps: steps},
	}
}

// Classify picks the message kind for the event, or skips it.
func Classify(ctx context.Context, fc *core.FlowContext) error {
	a := fc.Appointment
	switch fc.Event.Type {
	case kafka.EventAppointmentCreated:
		fc.Kind = KindCreated
	case kafka.EventAppointmentStatusChanged:
		switch a.Status {
		case model.StatusConfirmed:
			fc.Kind = KindConfirmed
		case model.StatusCancelled:
			fc.Kind = KindCancelled
		default:
			return fmt.Errorf("%w: no message for status %s", core.ErrSkip, a.Status)
		}
	case kafka.EventAppointmentReminder:
		if a.Status != model.StatusScheduled && a.Status != model.StatusConfirmed {
			return fmt.Errorf("%w: appointment is %s", core.ErrSkip, a.Status)
		}
		fc.Kind = KindReminder
	default:
		return fmt.Errorf("%w: event type %s", core.ErrSkip, fc.Event.Type)
	}

	if a.ClientPhone == "" {
		return fmt.Errorf("%w: appointment %s has no client phone", core.ErrSkip, a.AppointmentID)
	}
	fc.Recipient = a.ClientPhone
	return nil
}

func LoadSalon(salons SalonFetcher) func(context.Context, *core.FlowContext) error {
	return func(ctx context.Context, fc *core.FlowContext) error {
		salon, err := salons.GetByID(ctx, fc.Appointment.SalonID)
		if err != nil {
			return classifyFetchError("load salon "+fc.Appointment.SalonID, err)
		}
		fc.Salon = salon
		return nil
	}
}

func LoadProfessional(professionals ProfessionalFetcher) func(context.Context, *core.FlowContext) error {
	return func(ctx context.Context, fc *core.FlowContext) error {
		p, err := professionals.GetByID(ctx, fc.Appointment.ProfessionalID)
		if err != nil {
			return classifyFetchError("load professional "+fc.Appointment.ProfessionalID, err)
		}
		fc.Professional = p
		return nil
	}
}

func RenderMessage(fallback *time.Location) func(context.Context, *core.FlowContext) error {
	if fallback == nil {
		fallback = time.UTC
	}
	return func(ctx context.Context, fc *core.FlowContext) error {
		if fc.Salon == nil || fc.Professional == nil {
			return kafka.NewPermanentError("render message", errors.New("salon and professional must be loaded first"))
		}
		a := fc.Appointment
		at := a.StartTime.In(fc.Salon.Location(fallback))
		lang := locale.LanguageFor(fc.Salon.TimeZone, fc.Salon.Phone)

		fc.Message = Render(fc.Kind, lang, a.ClientName, a.ServiceName, fc.Professional.Name, fc.Salon.Name, at)
		return nil
	}
}

func SendMessage(sender Sender, log *logger.Logger) func(context.Context, *core.FlowContext) error {
	return func(ctx context.Context, fc *core.FlowContext) error {
		channel, err := sender.Send(ctx, fc.Recipient, fc.Message)
		if err != nil {
			var kerr *kafka.KafkaError
			if errors.As(err, &kerr) {
				return err
			}
			return kafka.NewTransientError("send message", err)
		}
		fc.Channel = channel

		log.Info("Notification sent",
			"event_id", fc.Event.ID,
			"appointment_id", fc.Appointment.AppointmentID,
			"kind", fc.Kind,
			"channel", channel,
		)
		return nil
	}
}

// classifyFetchError makes client errors permanent so the consumer does not
// retry a request that cannot succeed.
func classifyFetchError(what string, err error) error {
	var se *client.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests {
		return kafka.NewPermanentError(what, err)
	}
	return kafka.NewTransientError(what, err)
}
