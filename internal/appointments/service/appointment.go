package service

import (
	"context"
	"errors"
	appointmentserrors "salonbook/internal/appointments/errors"
	"salonbook/internal/appointments/repository"
	"salonbook/internal/appointments/validator"
	"salonbook/internal/availability"
	professionalserrors "salonbook/internal/professionals/errors"
	salonserrors "salonbook/internal/salons/errors"
	"salonbook/pkg/config"
	mongotx "salonbook/pkg/db/mongo"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/kafka"
	"salonbook/pkg/metrics"
	"salonbook/pkg/middleware"
	"salonbook/pkg/model"
	"salonbook/pkg/sealer"
	"sync"
	"time"
)

// EventSource is stamped on every event this service publishes.
const EventSource = "appointments"

type ProfessionalReader interface {
	FindByID(ctx context.Context, id string) (*model.Professional, error)
}

type SalonReader interface {
	FindByID(ctx context.Context, id string) (*model.Salon, error)
}

type AvailabilityQuery struct {
	ProfessionalID string
	Date           model.Date
	ServiceName    string
	Mode           availability.Mode
	IncludeBooked  bool
}

type AppointmentService interface {
	GetAvailableSlots(ctx context.Context, q AvailabilityQuery) ([]model.TimeSlot, error)
	Create(ctx context.Context, a *model.Appointment) (*model.AppointmentReceipt, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, int64, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
	Cancel(ctx context.Context, id string) (*model.Appointment, error)
	CancelByToken(ctx context.Context, req *model.CancelByToken) (*model.Appointment, error)
}

// Deps groups the collaborators of the appointment service. Sealer,
// Publisher and Metrics are optional.
type Deps struct {
	Repo          repository.AppointmentRepository
	Locks         repository.SlotLockRepository
	Professionals ProfessionalReader
	Salons        SalonReader
	Validator     *validator.AppointmentValidator
	Resolver      *availability.Resolver
	Sealer        *sealer.Sealer
	Publisher     kafka.Publisher
	Metrics       *metrics.Metrics
}

type appointmentService struct {
	repo          repository.AppointmentRepository
	locks         repository.SlotLockRepository
	professionals ProfessionalReader
	salons        SalonReader
	validator     *validator.AppointmentValidator
	resolver      *availability.Resolver
	sealer        *sealer.Sealer
	publisher     kafka.Publisher
	metrics       *metrics.Metrics
	cfg           *config.Config
	now           func() time.Time
}

func NewAppointmentService(deps Deps, cfg *config.Config) AppointmentService {
	return newAppointmentService(deps, cfg, time.Now)
}

func newAppointmentService(deps Deps, cfg *config.Config, now func() time.Time) *appointmentService {
	if deps.Resolver == nil {
		deps.Resolver = availability.NewResolver(nil, cfg.SlotGranularity)
	}
	if deps.Publisher == nil {
		deps.Publisher = kafka.NoopPublisher{Log: cfg.Log}
	}
	return &appointmentService{
		repo:          deps.Repo,
		locks:         deps.Locks,
		professionals: deps.Professionals,
		salons:        deps.Salons,
		validator:     deps.Validator,
		resolver:      deps.Resolver,
		sealer:        deps.Sealer,
		publisher:     deps.Publisher,
		metrics:       deps.Metrics,
		cfg:           cfg,
		now:           now,
	}
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, appointmentserrors.ErrNotFound) && !errors.Is(err, appointmentserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to get appointment by ID",
				"id", id,
				"error", err,
			)
		}
		return nil, s.mapError(err, id, "Failed to retrieve appointment")
	}
	if err := s.authorize(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *appointmentService) Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, int64, error) {
	// Salon-scoped tokens only ever see their own salon.
	if claims, ok := middleware.ClaimsFrom(ctx); ok && claims.SalonID != "" {
		if filter.SalonID == "" {
			filter.SalonID = claims.SalonID
		}
		if err := middleware.AuthorizeSalon(ctx, filter.SalonID); err != nil {
			return nil, 0, err
		}
	}
	if filter.SalonID == "" && filter.ProfessionalID == "" {
		return nil, 0, apperrors.InvalidInput("salon_id or professional_id is required")
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, apperrors.InvalidInput("start_time must be before end_time")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count appointments", "salon_id", filter.SalonID, "error", err)
			errCount = s.mapError(err, "", "Failed to count appointments")
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		appointments, err = s.repo.Search(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search appointments",
				"salon_id", filter.SalonID,
				"professional_id", filter.ProfessionalID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.mapError(err, "", "Failed to search appointments")
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return appointments, count, nil
}

// loadContext fetches the professional and its salon.
func (s *appointmentService) loadContext(ctx context.Context, professionalID string) (*model.Professional, *model.Salon, error) {
	p, err := s.professionals.FindByID(ctx, professionalID)
	if err != nil {
		return nil, nil, s.mapProfessionalError(err, professionalID)
	}
	salon, err := s.salons.FindByID(ctx, p.SalonID)
	if err != nil {
		return nil, nil, s.mapSalonError(err, p.SalonID)
	}
	return p, salon, nil
}

func (s *appointmentService) publish(ctx context.Context, eventType string, payload kafka.AppointmentPayload) {
	event, err := kafka.NewEvent(eventType, EventSource, payload.AppointmentID, payload)
	if err == nil {
		err = kafka.PublishEvent(ctx, s.publisher, event)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to publish appointment event",
			"event_type", eventType,
			"appointment_id", payload.AppointmentID,
			"error", err,
		)
	}
}

func (s *appointmentService) authorize(ctx context.Context, a *model.Appointment) error {
	return middleware.AuthorizeSalon(ctx, a.SalonID)
}

func (s *appointmentService) mapProfessionalError(err error, id string) error {
	switch {
	case errors.Is(err, professionalserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Professional", id)
	case errors.Is(err, professionalserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid professional ID format")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		s.cfg.Log.Error("Failed to load professional", "professional_id", id, "error", err)
		return apperrors.Internal("Failed to load professional", err)
	}
}

func (s *appointmentService) mapSalonError(err error, id string) error {
	switch {
	case errors.Is(err, salonserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Salon", id)
	case errors.Is(err, salonserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid salon ID format")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		s.cfg.Log.Error("Failed to load salon", "salon_id", id, "error", err)
		return apperrors.Internal("Failed to load salon", err)
	}
}

func (s *appointmentService) mapError(err error, id string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, appointmentserrors.ErrNotFound):
		if id == "" {
			return apperrors.NotFound("Appointment")
		}
		return apperrors.NotFoundWithID("Appointment", id)
	case errors.Is(err, appointmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid appointment ID format")
	case errors.Is(err, appointmentserrors.ErrSlotTaken):
		return apperrors.Conflict("This time slot is already booked")
	case errors.Is(err, appointmentserrors.ErrSlotLocked):
		return apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
	case errors.Is(err, appointmentserrors.ErrStatusChanged):
		return apperrors.Conflict("Appointment status was changed by another request")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		return apperrors.Internal(message, err)
	}
}
