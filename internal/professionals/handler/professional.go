package handler

import (
	"net/http"
	"salonbook/internal/professionals/service"
	apperrors "salonbook/pkg/errors"
	httputil "salonbook/pkg/http"
	"salonbook/pkg/logger"
	"salonbook/pkg/middleware"
	"salonbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ProfessionalHandler struct {
	service   service.ProfessionalService
	log       *logger.Logger
	jwtSecret string
}

func NewProfessionalHandler(service service.ProfessionalService, log *logger.Logger, jwtSecret string) *ProfessionalHandler {
	return &ProfessionalHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *ProfessionalHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.Professional
	if err := httputil.DecodeBody(r, &p); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, p); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ProfessionalHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", p)
}

func (h *ProfessionalHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	active, err := httputil.ParseBoolParam(r, "active")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	professionals, total, err := h.service.Search(r.Context(), r.URL.Query().Get("salon_id"), active, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, professionals, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *ProfessionalHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ProfessionalUpdate
	if err := httputil.DecodeBody(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	p, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	h.writeSuccess(w, "Update", p)
}

func (h *ProfessionalHandler) ReplaceAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var week model.WeeklyAvailability
	if err := httputil.DecodeBody(r, &week); err != nil {
		h.writeError(w, "ReplaceAvailability", err)
		return
	}

	p, err := h.service.ReplaceAvailability(r.Context(), ps.ByName("id"), week)
	if err != nil {
		h.writeError(w, "ReplaceAvailability", err)
		return
	}

	h.writeSuccess(w, "ReplaceAvailability", p)
}

func (h *ProfessionalHandler) AddOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var override model.Override
	if err := httputil.DecodeBody(r, &override); err != nil {
		h.writeError(w, "AddOverride", err)
		return
	}

	p, err := h.service.AddOverride(r.Context(), ps.ByName("id"), override)
	if err != nil {
		h.writeError(w, "AddOverride", err)
		return
	}

	h.writeSuccess(w, "AddOverride", p)
}

func (h *ProfessionalHandler) RemoveOverrides(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := model.ParseDate(ps.ByName("date"))
	if err != nil {
		h.writeError(w, "RemoveOverrides", apperrors.InvalidInput(err.Error()))
		return
	}

	p, err := h.service.RemoveOverrides(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "RemoveOverrides", err)
		return
	}

	h.writeSuccess(w, "RemoveOverrides", p)
}

func (h *ProfessionalHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProfessionalHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ProfessionalHandler) RegisterRoutes(router *httprouter.Router) {
	admin := middleware.RequireAdmin(h.jwtSecret, h.log)

	router.POST("/api/v1/professionals", admin(h.Create))
	router.GET("/api/v1/professionals/search", h.Search)
	router.GET("/api/v1/professionals/id/:id", h.GetByID)
	router.PATCH("/api/v1/professionals/id/:id", admin(h.Update))
	router.PUT("/api/v1/professionals/id/:id/availability", admin(h.ReplaceAvailability))
	router.POST("/api/v1/professionals/id/:id/overrides", admin(h.AddOverride))
	router.DELETE("/api/v1/professionals/id/:id/overrides/:date", admin(h.RemoveOverrides))
}
