package reminder

import (
	"context"
	"errors"
	"fmt"
	"salonbook/pkg/client"
	"salonbook/pkg/kafka"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSalons struct {
	salons []*model.Salon
	calls  int
	err    error
}

func (f *fakeSalons) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, *client.Metadata, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	end := int(offset) + limit
	if end > len(f.salons) {
		end = len(f.salons)
	}
	page := []*model.Salon{}
	if int(offset) < len(f.salons) {
		page = f.salons[offset:end]
	}
	return page, &client.Metadata{TotalCount: int64(len(f.salons)), Limit: limit, Offset: offset}, nil
}

type fakeAppointments struct {
	bySalon map[string][]*model.Appointment
	failFor string
	filters []model.AppointmentFilter
}

func (f *fakeAppointments) Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, *client.Metadata, error) {
	f.filters = append(f.filters, filter)
	if filter.SalonID == f.failFor {
		return nil, nil, &client.StatusError{StatusCode: 503}
	}
	all := f.bySalon[filter.SalonID]
	end := int(offset) + limit
	if end > len(all) {
		end = len(all)
	}
	page := []*model.Appointment{}
	if int(offset) < len(all) {
		page = all[offset:end]
	}
	return page, &client.Metadata{TotalCount: int64(len(all))}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	failKey  string
}

func (p *recordingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.Key == p.failKey {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func appointments(salonID, proID string, n int) []*model.Appointment {
	out := make([]*model.Appointment, n)
	for i := range out {
		out[i] = &model.Appointment{
			ID:             fmt.Sprintf("%s-a%d", salonID, i),
			SalonID:        salonID,
			ProfessionalID: proID,
			ClientName:     "Maria",
			ClientPhone:    "+5511912345678",
			ServiceName:    "Corte",
			StartTime:      testNow.Add(30 * time.Hour),
			Status:         model.StatusScheduled,
		}
	}
	return out
}

func newJob(salons SalonLister, appts AppointmentSearcher, pub kafka.Publisher) *Job {
	return &Job{
		Salons:       salons,
		Appointments: appts,
		Publisher:    pub,
		Log:          logger.Discard(),
		PageSize:     2,
		now:          func() time.Time { return testNow },
	}
}

func TestJob_PublishesRemindersForEverySalon(t *testing.T) {
	salons := &fakeSalons{salons: []*model.Salon{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}}
	appts := &fakeAppointments{bySalon: map[string][]*model.Appointment{
		"s1": appointments("s1", "p1", 3),
		"s3": appointments("s3", "p3", 1),
	}}
	pub := &recordingPublisher{}

	sum, err := newJob(salons, appts, pub).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Salons: 3, Published: 4}, sum)
	assert.Equal(t, 2, salons.calls)

	require.Len(t, pub.messages, 4)
	e, err := kafka.DecodeEvent(pub.messages[0])
	require.NoError(t, err)
	assert.Equal(t, kafka.EventAppointmentReminder, e.Type)
	assert.Equal(t, EventSource, e.Source)
	assert.Equal(t, "p1", e.Key)

	var payload kafka.AppointmentPayload
	require.NoError(t, e.DecodeData(&payload))
	assert.Equal(t, "s1-a0", payload.AppointmentID)
	assert.Equal(t, model.StatusScheduled, payload.Status)
}

func TestJob_SearchesTheNextDayWindow(t *testing.T) {
	salons := &fakeSalons{salons: []*model.Salon{{ID: "s1"}}}
	appts := &fakeAppointments{}

	_, err := newJob(salons, appts, &recordingPublisher{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, appts.filters, 1)
	f := appts.filters[0]
	assert.Equal(t, "s1", f.SalonID)
	assert.Equal(t, model.ActiveStatuses, f.Statuses)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.True(t, f.From.Equal(testNow.Add(24*time.Hour)))
	assert.True(t, f.To.Equal(testNow.Add(48*time.Hour)))
}

func TestJob_ContinuesPastFailures(t *testing.T) {
	salons := &fakeSalons{salons: []*model.Salon{{ID: "s1"}, {ID: "s2"}}}
	appts := &fakeAppointments{
		failFor: "s1",
		bySalon: map[string][]*model.Appointment{
			"s2": append(appointments("s2", "p2", 1), appointments("s2b", "bad", 1)...),
		},
	}
	pub := &recordingPublisher{failKey: "bad"}

	sum, err := newJob(salons, appts, pub).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Salons: 2, Published: 1, Failed: 2}, sum)
}

func TestJob_SalonListingFailureAborts(t *testing.T) {
	salons := &fakeSalons{err: errors.New("connection refused")}

	_, err := newJob(salons, &fakeAppointments{}, &recordingPublisher{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list salons")
}

func TestPaginate(t *testing.T) {
	var offsets []int64
	err := paginate(10, func(limit int, offset int64) (int, int64, error) {
		offsets = append(offsets, offset)
		return 10, 25, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20}, offsets)

	offsets = nil
	err = paginate(10, func(limit int, offset int64) (int, int64, error) {
		offsets = append(offsets, offset)
		if offset == 0 {
			return 10, 0, nil
		}
		return 4, 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10}, offsets)
}

func TestScheduler_Schedule(t *testing.T) {
	s := NewScheduler(time.UTC, logger.Discard())
	job := newJob(&fakeSalons{}, &fakeAppointments{}, &recordingPublisher{})

	assert.Error(t, s.Schedule("every morning", job, time.Minute))
	require.NoError(t, s.Schedule("0 9 * * *", job, time.Minute))
	assert.Len(t, s.cron.Entries(), 1)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
