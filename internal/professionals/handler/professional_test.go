package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

type mockProfessionalService struct {
	searchSalon  string
	searchActive *bool
	week         model.WeeklyAvailability
	override     model.Override
	removed      model.Date
}

func (m *mockProfessionalService) Create(ctx context.Context, p *model.Professional) error {
	p.ID = "65f1a2b3c4d5e6f708091a2c"
	return nil
}

func (m *mockProfessionalService) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	return nil, apperrors.NotFoundWithID("Professional", id)
}

func (m *mockProfessionalService) Search(ctx context.Context, salonID string, active *bool, limit int, offset int64) ([]*model.Professional, int64, error) {
	m.searchSalon, m.searchActive = salonID, active
	return []*model.Professional{}, 0, nil
}

func (m *mockProfessionalService) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) (*model.Professional, error) {
	return &model.Professional{ID: id}, nil
}

func (m *mockProfessionalService) ReplaceAvailability(ctx context.Context, id string, week model.WeeklyAvailability) (*model.Professional, error) {
	m.week = week
	return &model.Professional{ID: id, RecurringAvailability: week}, nil
}

func (m *mockProfessionalService) AddOverride(ctx context.Context, id string, override model.Override) (*model.Professional, error) {
	m.override = override
	return &model.Professional{ID: id}, nil
}

func (m *mockProfessionalService) RemoveOverrides(ctx context.Context, id string, date model.Date) (*model.Professional, error) {
	m.removed = date
	return &model.Professional{ID: id}, nil
}

func serve(t *testing.T, svc *mockProfessionalService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := httprouter.New()
	NewProfessionalHandler(svc, logger.Discard(), "").RegisterRoutes(router)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearch_ParsesFilters(t *testing.T) {
	svc := &mockProfessionalService{}

	rec := serve(t, svc, http.MethodGet, "/api/v1/professionals/search?salon_id=s1&active=false", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", svc.searchSalon)
	if assert.NotNil(t, svc.searchActive) {
		assert.False(t, *svc.searchActive)
	}

	rec = serve(t, svc, http.MethodGet, "/api/v1/professionals/search?salon_id=s1&active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceAvailability_KeepsStoredKeyOrder(t *testing.T) {
	svc := &mockProfessionalService{}
	body := `{"segunda":{"is_work_day":true,"start_time":"09:00","end_time":"12:00"},"monday":{"is_work_day":false}}`

	rec := serve(t, svc, http.MethodPut, "/api/v1/professionals/id/p1/availability", body)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	if assert.Len(t, svc.week, 2) {
		assert.Equal(t, "segunda", svc.week[0].Day)
		assert.Equal(t, "monday", svc.week[1].Day)
	}
}

func TestOverrides_Routes(t *testing.T) {
	svc := &mockProfessionalService{}

	rec := serve(t, svc, http.MethodPost, "/api/v1/professionals/id/p1/overrides", `{"date":"2025-03-03","type":"unavailable"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.NewDate(2025, time.March, 3), svc.override.Date)

	rec = serve(t, svc, http.MethodDelete, "/api/v1/professionals/id/p1/overrides/2025-03-04", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-03-04", svc.removed.String())

	rec = serve(t, svc, http.MethodDelete, "/api/v1/professionals/id/p1/overrides/04-03-2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByID_NotFound(t *testing.T) {
	rec := serve(t, &mockProfessionalService{}, http.MethodGet, "/api/v1/professionals/id/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
