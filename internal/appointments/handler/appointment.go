package handler

import (
	"fmt"
	"net/http"
	"salonbook/internal/appointments/service"
	"salonbook/internal/availability"
	apperrors "salonbook/pkg/errors"
	httputil "salonbook/pkg/http"
	"salonbook/pkg/logger"
	"salonbook/pkg/middleware"
	"salonbook/pkg/model"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	service   service.AppointmentService
	log       *logger.Logger
	jwtSecret string
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger, jwtSecret string) *AppointmentHandler {
	return &AppointmentHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := parseAvailabilityQuery(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), q)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	h.writeSuccess(w, "Availability", slots)
}

func parseAvailabilityQuery(r *http.Request) (service.AvailabilityQuery, error) {
	values := r.URL.Query()
	q := service.AvailabilityQuery{
		ProfessionalID: strings.TrimSpace(values.Get("professional_id")),
		ServiceName:    strings.TrimSpace(values.Get("service_name")),
	}

	raw := values.Get("date")
	if raw == "" {
		return q, apperrors.InvalidInput("date parameter is required (YYYY-MM-DD)")
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		return q, apperrors.InvalidInput(err.Error())
	}
	q.Date = date

	mode, err := availability.ParseMode(values.Get("mode"))
	if err != nil {
		return q, apperrors.InvalidInput(err.Error())
	}
	q.Mode = mode

	includeBooked, err := httputil.ParseBoolParam(r, "include_booked")
	if err != nil {
		return q, err
	}
	q.IncludeBooked = includeBooked != nil && *includeBooked

	return q, nil
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var a model.Appointment
	if err := httputil.DecodeBody(r, &a); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	receipt, err := h.service.Create(r.Context(), &a)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, receipt); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", a)
}

func (h *AppointmentHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	appointments, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

// parseFilter reads status as a comma separated list.
func parseFilter(r *http.Request) (model.AppointmentFilter, error) {
	values := r.URL.Query()
	filter := model.AppointmentFilter{
		SalonID:        strings.TrimSpace(values.Get("salon_id")),
		ProfessionalID: strings.TrimSpace(values.Get("professional_id")),
	}

	if raw := values.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := model.AppointmentStatus(strings.ToLower(strings.TrimSpace(part)))
			switch status {
			case model.StatusScheduled, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled:
				filter.Statuses = append(filter.Statuses, status)
			default:
				return filter, apperrors.InvalidInput(fmt.Sprintf("invalid status parameter: %q", part))
			}
		}
	}

	from, err := httputil.ParseTimeParam(r, "start_time")
	if err != nil {
		return filter, err
	}
	to, err := httputil.ParseTimeParam(r, "end_time")
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to

	return filter, nil
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.StatusUpdate
	if err := httputil.DecodeBody(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	a, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), update.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	h.writeSuccess(w, "UpdateStatus", a)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	h.writeSuccess(w, "Cancel", a)
}

func (h *AppointmentHandler) CancelByToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CancelByToken
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "CancelByToken", err)
		return
	}

	a, err := h.service.CancelByToken(r.Context(), &req)
	if err != nil {
		h.writeError(w, "CancelByToken", err)
		return
	}

	h.writeSuccess(w, "CancelByToken", a)
}

func (h *AppointmentHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	admin := middleware.RequireAdmin(h.jwtSecret, h.log)

	router.GET("/api/v1/appointments/availability", h.Availability)
	router.POST("/api/v1/appointments", h.Create)
	router.GET("/api/v1/appointments/search", admin(h.Search))
	router.GET("/api/v1/appointments/id/:id", admin(h.GetByID))
	router.PATCH("/api/v1/appointments/id/:id/status", admin(h.UpdateStatus))
	router.POST("/api/v1/appointments/id/:id/cancel", admin(h.Cancel))
	router.POST("/api/v1/appointments/cancel-by-token", h.CancelByToken)
}
