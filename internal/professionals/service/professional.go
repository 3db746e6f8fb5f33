package service

import (
	"context"
	"errors"
	"fmt"
	"salonbook/internal/availability"
	professionalserrors "salonbook/internal/professionals/errors"
	"salonbook/internal/professionals/repository"
	"salonbook/internal/professionals/validator"
	salonserrors "salonbook/internal/salons/errors"
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

// SalonReader is the slice of the salon store professionals depend on.
type SalonReader interface {
	FindByID(ctx context.Context, id string) (*model.Salon, error)
}

type ProfessionalService interface {
	Create(ctx context.Context, p *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	Search(ctx context.Context, salonID string, active *bool, limit int, offset int64) ([]*model.Professional, int64, error)
	Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) (*model.Professional, error)
	ReplaceAvailability(ctx context.Context, id string, week model.WeeklyAvailability) (*model.Professional, error)
	AddOverride(ctx context.Context, id string, override model.Override) (*model.Professional, error)
	RemoveOverrides(ctx context.Context, id string, date model.Date) (*model.Professional, error)
}

type professionalService struct {
	repo      repository.ProfessionalRepository
	salons    SalonReader
	validator *validator.ProfessionalValidator
	names     *availability.DayNames
	cfg       *config.Config
}

func NewProfessionalService(
	repo repository.ProfessionalRepository,
	salons SalonReader,
	validator *validator.ProfessionalValidator,
	names *availability.DayNames,
	cfg *config.Config,
) ProfessionalService {
	if names == nil {
		names = availability.DefaultDayNames()
	}
	return &professionalService{
		repo:      repo,
		salons:    salons,
		validator: validator,
		names:     names,
		cfg:       cfg,
	}
}

// Create stores a new, active professional. Weekday keys in any supported
// language are rewritten to the canonical English keys.
func (s *professionalService) Create(ctx context.Context, p *model.Professional) error {
	if err := middleware.AuthorizeSalon(ctx, p.SalonID); err != nil {
		return err
	}

	if err := s.sanitize(p); err != nil {
		return err
	}
	p.Active = true

	week, err := s.canonicalWeek(p.RecurringAvailability)
	if err != nil {
		return err
	}
	p.RecurringAvailability = week
	p.DateOverrides = dedupeOverrides(p.DateOverrides)

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Professional validation failed",
			"name", p.Name,
			"salon_id", p.SalonID,
			"error", err,
		)
		return validationError("Professional validation failed", err)
	}

	if _, err := s.salons.FindByID(ctx, p.SalonID); err != nil {
		return s.mapSalonError(err, p.SalonID)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create professional",
			"name", p.Name,
			"salon_id", p.SalonID,
			"error", err,
		)
		return s.mapError(err, "", "Failed to create professional")
	}

	s.cfg.Log.Info("Professional created successfully",
		"id", p.ID,
		"salon_id", p.SalonID,
		"name", p.Name,
	)

	return nil
}

func (s *professionalService) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, professionalserrors.ErrNotFound) && !errors.Is(err, professionalserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to get professional by ID",
				"id", id,
				"error", err,
			)
		}
		return nil, s.mapError(err, id, "Failed to retrieve professional")
	}

	return p, nil
}

func (s *professionalService) Search(ctx context.Context, salonID string, active *bool, limit int, offset int64) ([]*model.Professional, int64, error) {
	if salonID == "" {
		return nil, 0, apperrors.InvalidInput("salon_id is required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var professionals []*model.Professional
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		count, err = s.repo.CountSearch(ctx, salonID, active)
		if err != nil {
			s.cfg.Log.Error("Failed to count professionals", "salon_id", salonID, "error", err)
			errCount = s.mapError(err, "", "Failed to count professionals")
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreOpTimeout)
		defer cancel()
		professionals, err = s.repo.Search(ctx, salonID, active, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search professionals",
				"salon_id", salonID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.mapError(err, "", "Failed to search professionals")
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return professionals, count, nil
}

func (s *professionalService) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) (*model.Professional, error) {
	existing, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.sanitizeUpdate(updates); err != nil {
		return nil, err
	}
	// Only the profile fields are checked: stored availability may still
	// carry legacy weekday keys.
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Professional validation failed",
			"id", id,
			"error", err,
		)
		return nil, validationError("Professional validation failed", err)
	}
	merged := mergeProfessionalUpdates(existing, updates)

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update professional",
			"id", id,
			"error", err,
		)
		return nil, s.mapError(err, id, "Failed to update professional")
	}

	s.cfg.Log.Info("Professional updated successfully",
		"id", id,
		"active", merged.Active,
	)

	return merged, nil
}

func (s *professionalService) ReplaceAvailability(ctx context.Context, id string, week model.WeeklyAvailability) (*model.Professional, error) {
	canonical, err := s.canonicalWeek(week)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateWeek(canonical); err != nil {
		return nil, validationError("Availability validation failed", err)
	}

	existing, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetAvailability(ctx, id, canonical); err != nil {
		s.cfg.Log.Error("Failed to replace availability",
			"id", id,
			"error", err,
		)
		return nil, s.mapError(err, id, "Failed to replace availability")
	}

	s.cfg.Log.Info("Professional availability replaced", "id", id)

	existing.RecurringAvailability = canonical
	return existing, nil
}

// AddOverride replaces any override already stored for the same date.
func (s *professionalService) AddOverride(ctx context.Context, id string, override model.Override) (*model.Professional, error) {
	if override.Type == model.OverrideUnavailable {
		override.StartTime, override.EndTime = "", ""
	}
	if err := s.validator.ValidateOverride(override); err != nil {
		return nil, validationError("Override validation failed", err)
	}

	return s.rewriteOverrides(ctx, id, "add", func(current []model.Override) []model.Override {
		out := withoutDate(current, override.Date)
		return append(out, override)
	})
}

func (s *professionalService) RemoveOverrides(ctx context.Context, id string, date model.Date) (*model.Professional, error) {
	if date.IsZero() {
		return nil, apperrors.InvalidInput("Override date cannot be empty")
	}

	return s.rewriteOverrides(ctx, id, "remove", func(current []model.Override) []model.Override {
		return withoutDate(current, date)
	})
}

// rewriteOverrides runs a read-modify-write of the override list in one
// transaction, so two concurrent edits cannot drop each other's entries.
func (s *professionalService) rewriteOverrides(ctx context.Context, id, op string, edit func([]model.Override) []model.Override) (*model.Professional, error) {
	if _, err := s.loadForWrite(ctx, id); err != nil {
		return nil, err
	}

	var updated *model.Professional
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		p, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return err
		}
		p.DateOverrides = edit(p.DateOverrides)
		if err := s.repo.SetOverrides(sessCtx, id, p.DateOverrides); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update overrides",
			"id", id,
			"operation", op,
			"error", err,
		)
		return nil, s.mapError(err, id, "Failed to update overrides")
	}

	s.cfg.Log.Info("Professional overrides updated",
		"id", id,
		"operation", op,
		"overrides", len(updated.DateOverrides),
	)

	return updated, nil
}

// loadForWrite fetches the professional and checks the caller may edit
// its salon.
func (s *professionalService) loadForWrite(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to check professional existence")
	}
	if err := middleware.AuthorizeSalon(ctx, p.SalonID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *professionalService) canonicalWeek(stored model.WeeklyAvailability) (model.WeeklyAvailability, error) {
	if stored == nil {
		return nil, nil
	}
	week, unknown := availability.NormalizeWeek(stored, s.names)
	if len(unknown) > 0 {
		return nil, apperrors.Validation("Availability validation failed", map[string]any{
			"recurring_availability": fmt.Sprintf("unknown weekday keys: %v", unknown),
		})
	}
	return week.Canonicalize(), nil
}

func (s *professionalService) sanitize(p *model.Professional) error {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Specialty = sanitizer.TrimAndNormalize(p.Specialty)
	p.SalonID = sanitizer.TrimAndNormalize(p.SalonID)

	phone, err := s.normalizePhone(p.Phone)
	if err != nil {
		return err
	}
	p.Phone = phone
	return nil
}

func (s *professionalService) sanitizeUpdate(updates *model.ProfessionalUpdate) error {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Specialty != "" {
		updates.Specialty = sanitizer.TrimAndNormalize(updates.Specialty)
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

func (s *professionalService) normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	phone := sanitizer.NormalizePhone(raw, locale.RegionForTimezone(s.cfg.DefaultTimezone))
	if phone == "" {
		return "", apperrors.Validation("Professional validation failed", validation.Field("phone", "phone must be a valid phone number").Details())
	}
	return phone, nil
}

func mergeProfessionalUpdates(existing *model.Professional, updates *model.ProfessionalUpdate) *model.Professional {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Specialty != "" {
		merged.Specialty = updates.Specialty
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	return &merged
}

// dedupeOverrides keeps the first override per date.
func dedupeOverrides(overrides []model.Override) []model.Override {
	seen := make(map[model.Date]struct{}, len(overrides))
	out := make([]model.Override, 0, len(overrides))
	for _, o := range overrides {
		if _, dup := seen[o.Date]; dup {
			continue
		}
		seen[o.Date] = struct{}{}
		out = append(out, o)
	}
	return out
}

func withoutDate(overrides []model.Override, date model.Date) []model.Override {
	out := make([]model.Override, 0, len(overrides))
	for _, o := range overrides {
		if o.Date != date {
			out = append(out, o)
		}
	}
	return out
}

func (s *professionalService) mapSalonError(err error, salonID string) error {
	switch {
	case errors.Is(err, salonserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Salon", salonID)
	case errors.Is(err, salonserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid salon ID format")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		s.cfg.Log.Error("Failed to load salon", "salon_id", salonID, "error", err)
		return apperrors.Internal("Failed to load salon", err)
	}
}

func (s *professionalService) mapError(err error, id string, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, professionalserrors.ErrNotFound):
		if id == "" {
			return apperrors.NotFound("Professional")
		}
		return apperrors.NotFoundWithID("Professional", id)
	case errors.Is(err, professionalserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid professional ID format")
	case mongotx.IsUnavailable(err):
		return apperrors.Unavailable("database", err)
	default:
		return apperrors.Internal(message, err)
	}
}

func validationError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
