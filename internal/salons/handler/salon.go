package handler

import (
	"net/http"
	"salonbook/internal/salons/service"
	httputil "salonbook/pkg/http"
	"salonbook/pkg/logger"
	"salonbook/pkg/middleware"
	"salonbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SalonHandler struct {
	service   service.SalonService
	log       *logger.Logger
	jwtSecret string
}

func NewSalonHandler(service service.SalonService, log *logger.Logger, jwtSecret string) *SalonHandler {
	return &SalonHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *SalonHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var salon model.Salon
	if err := httputil.DecodeBody(r, &salon); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &salon); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, salon); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SalonHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	salon, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, salon); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SalonHandler) GetBySlug(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	salon, err := h.service.GetBySlug(r.Context(), ps.ByName("slug"))
	if err != nil {
		h.writeError(w, "GetBySlug", err)
		return
	}

	if err := httputil.WriteSuccess(w, salon); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBySlug", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SalonHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	salons, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, salons, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *SalonHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.SalonUpdate
	if err := httputil.DecodeBody(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	salon, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, salon); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SalonHandler) ReplaceServices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var services []model.Service
	if err := httputil.DecodeBody(r, &services); err != nil {
		h.writeError(w, "ReplaceServices", err)
		return
	}

	salon, err := h.service.ReplaceServices(r.Context(), ps.ByName("id"), services)
	if err != nil {
		h.writeError(w, "ReplaceServices", err)
		return
	}

	if err := httputil.WriteSuccess(w, salon); err != nil {
		h.log.Error("failed to write success response", "handler", "ReplaceServices", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SalonHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SalonHandler) RegisterRoutes(router *httprouter.Router) {
	admin := middleware.RequireAdmin(h.jwtSecret, h.log)

	router.POST("/api/v1/salons", admin(h.Create))
	router.GET("/api/v1/salons", h.GetAll)
	router.GET("/api/v1/salons/id/:id", h.GetByID)
	router.GET("/api/v1/salons/slug/:slug", h.GetBySlug)
	router.PATCH("/api/v1/salons/id/:id", admin(h.Update))
	router.PUT("/api/v1/salons/id/:id/services", admin(h.ReplaceServices))
}
