package core

import (
	"salonbook/pkg/kafka"
	"salonbook/pkg/model"
)

// FlowContext is shared by the steps of one flow run. Steps fill it in order.
type FlowContext struct {
	Event       kafka.Event
	Appointment kafka.AppointmentPayload

	// Kind selects the message template.
	Kind string

	Salon        *model.Salon
	Professional *model.Professional

	Recipient string
	Message   string
	Channel   string
}

func NewFlowContext(e kafka.Event, a kafka.AppointmentPayload) *FlowContext {
	return &FlowContext{Event: e, Appointment: a}
}
