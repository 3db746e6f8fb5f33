package service

import (
	"context"
	"errors"
	salonserrors "salonbook/internal/salons/errors"
	"salonbook/internal/salons/repository"
	"salonbook/internal/salons/validator"
	"salonbook/pkg/config"
	mongotx "salonbook/pkg/db/mongo"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/locale"
	"salonbook/pkg/middleware"
	"salonbook/pkg/model"
	"salonbook/pkg/sanitizer"
	"salonbook/pkg/validation"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

type SalonService interface {
	Create(ctx context.Context, salon *model.Salon) error
	GetByID(ctx context.Context, id string) (*model.Salon, error)
	GetBySlug(ctx context.Context, slug string) (*model.Salon, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, int64, error)
	Update(ctx context.Context, id string, updates *model.SalonUpdate) (*model.Salon, error)
	ReplaceServices(ctx context.Context, id string, services []model.Service) (*model.Salon, error)
}

type salonService struct {
	repo      repository.SalonRepository
	validator *validator.SalonValidator
	cfg       *config.Config
}

func NewSalonService(
	repo repository.SalonRepository,
	validator *validator.SalonValidator,
	cfg *config.Config,
) SalonService {
	return &salonService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *salonService) Create(ctx context.Context, salon *model.Salon) error {
	if claims, ok := middleware.ClaimsFrom(ctx); ok && claims.SalonID != "" {
		return apperrors.Forbidden("Salon-scoped tokens cannot create salons")
	}

	if err := s.sanitize(salon); err != nil {
		return err
	}
	s.applyDefaults(salon)

	if err := s.validator.Validate(salon); err != nil {
		s.cfg.Log.Warn("Salon validation failed",
			"name", salon.Name,
			"slug", salon.Slug,
			"error", err,
		)
		return validationError("Salon validation failed", err)
	}

	if err := s.repo.Create(ctx, salon); err != nil {
		s.cfg.Log.Error("Failed to create salon",
			"name", salon.Name,
			"slug", salon.Slug,
			"error", err,
		)
		return s.mapError(err, salon.Slug, "Failed to create salon")
	}

	s.cfg.Log.Info("Salon created successfully",
		"id", salon.ID,
		"slug", salon.Slug,
		"timezone", salon.TimeZone,
		"services", len(salon.Services),
	)

	return nil
}

func (s *salonService) GetByID(ctx context.Context, id string) (*model.Salon, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Salon ID cannot be empty")
	}

	salon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, salonserrors.ErrNotFound) && !errors.Is(err, salonserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to get salon by ID",
				"id", id,
				"error", err,
			)
		}
		return nil, s.mapError(err, id, "Failed to retrieve salon")
	}

	return salon, nil
}

func (s *salonService) GetBySlug(ctx context.Context, slug string) (*model.Salon, error) {
	slug = sanitizer.Slugify(slug)
	if slug == "" {
		return nil, apperrors.InvalidInput("Salon slug cannot be empty")
	}

	salon, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, salonserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to get salon by slug",
				"slug", slug,
				"error", err,
			)
		}
		return nil, s.mapError(err, slug, "Failed to retrieve salon")
	}

	return salon, nil
}

func (s *salonService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var salons []*model.Salon
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count salons", "error", err)
			errCount = s.mapError(err, "", "Failed to count salons")
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		salons, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all salons",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.mapError(err, "", "Failed to retrieve salons")
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return salons, count, nil
}

func (s *salonService) Update(ctx context.Context, id string, updates *model.SalonUpdate) (*model.Salon, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Salon ID cannot be empty")
	}
	if err := middleware.AuthorizeSalon(ctx, id); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to check salon existence")
	}

	if err := s.sanitizeUpdate(updates); err != nil {
		return nil, err
	}
	merged := s.mergeSalonUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Salon validation failed",
			"id", id,
			"slug", merged.Slug,
			"error", err,
		)
		return nil, validationError("Salon validation failed", err)
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update salon",
			"id", id,
			"error", err,
		)
		return nil, s.mapError(err, id, "Failed to update salon")
	}

	s.cfg.Log.Info("Salon updated successfully",
		"id", id,
		"slug", merged.Slug,
	)

	return merged, nil
}

// ReplaceServices swaps the whole service list. Appointments keep the
// service name and price they were booked with.
func (s *salonService) ReplaceServices(ctx context.Context, id string, services []model.Service) (*model.Salon, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Salon ID cannot be empty")
	}
	if err := middleware.AuthorizeSalon(ctx, id); err != nil {
		return nil, err
	}

	services = sanitizeServices(services)
	if err := s.validator.ValidateServices(services); err != nil {
		return nil, validationError("Service list validation failed", err)
	}

	var updated *model.Salon
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.ReplaceServices(sessCtx, id, services); err != nil {
			return err
		}
		salon, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return err
		}
		updated = salon
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to replace salon services",
			"id", id,
			"error", err,
		)
		return nil, s.mapError(err, id, "Failed to replace salon services")
	}

	s.cfg.Log.Info("Salon services replaced",
		"id", id,
		"services", len(services),
	)

	return updated, nil
}

func (s *salonService) sanitize(salon *model.Salon) error {
	salon.Name = sanitizer.NormalizeName(salon.Name)
	if salon.Slug == "" {
		salon.Slug = sanitizer.Slugify(salon.Name)
	} else {
		salon.Slug = sanitizer.Slugify(salon.Slug)
	}
	salon.OwnerID = sanitizer.TrimAndNormalize(salon.OwnerID)
	salon.Email = sanitizer.NormalizeEmail(salon.Email)
	salon.Address = sanitizer.TrimAndNormalize(salon.Address)
	salon.TimeZone = sanitizer.TrimAndNormalize(salon.TimeZone)
	salon.Services = sanitizeServices(salon.Services)

	phone, err := s.normalizePhone(salon.Phone)
	if err != nil {
		return err
	}
	salon.Phone = phone
	return nil
}

func (s *salonService) sanitizeUpdate(updates *model.SalonUpdate) error {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Slug != "" {
		updates.Slug = sanitizer.Slugify(updates.Slug)
	}
	if updates.Email != "" {
		updates.Email = sanitizer.NormalizeEmail(updates.Email)
	}
	if updates.Address != "" {
		updates.Address = sanitizer.TrimAndNormalize(updates.Address)
	}
	if updates.TimeZone != "" {
		updates.TimeZone = sanitizer.TrimAndNormalize(updates.TimeZone)
	}
	if updates.Services != nil {
		normalized := sanitizeServices(*updates.Services)
		updates.Services = &normalized
	}
	if updates.Phone != "" {
		phone, err := s.normalizePhone(updates.Phone)
		if err != nil {
			return err
		}
		updates.Phone = phone
	}
	return nil
}

// normalizePhone reads national numbers in the region of the service's
// default timezone before trying the other supported regions.
func (s *salonService) normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	phone := sanitizer.NormalizePhone(raw, locale.RegionForTimezone(s.cfg.DefaultTimezone))
	if phone == "" {
		return "", apperrors.Validation("Salon validation failed", validation.Field("phone", "phone must be a valid phone number").Details())
	}
	return phone, nil
}

func sanitizeServices(services []model.Service) []model.Service {
	if services == nil {
		return nil
	}
	out := make([]model.Service, len(services))
	for i, svc := range services {
		svc.Name = sanitizer.NormalizeName(svc.Name)
		out[i] = svc
	}
	return out
}

func (s *salonService) applyDefaults(salon *model.Salon) {
	if salon.TimeZone == "" {
		salon.TimeZone = locale.InferTimezoneFromPhone(salon.Phone, s.cfg.DefaultTimezone)
	}
}

func (s *salonService) mergeSalonUpdates(existing *model.Salon, updates *model.SalonUpdate) *model.Salon {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Slug != "" {
		merged.Slug = updates.Slug
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}
	if updates.SlotGranularity != nil {
		merged.SlotGranularity = *updates.SlotGranularity
	}
	if updates.Services != nil {
		merged.Services = *updates.Services
	}

	return &merged
}

func (s *salonService) mapError(err error, ref string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, salonserrors.ErrNotFound):
		if ref == "" {
			return apperrors.NotFound("Salon")
		}
		return apperrors.NotFoundWithID("Salon", ref)
	case errors.Is(err, salonserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid salon ID format")
	case errors.Is(err, salonserrors.ErrDuplicateSlug):
		return apperrors.Conflict("A salon with this slug already exists")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		return apperrors.Internal(message, err)
	}
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
