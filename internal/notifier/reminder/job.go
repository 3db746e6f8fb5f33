package reminder

import (
	"context"
	"fmt"
	"salonbook/pkg/client"
	"salonbook/pkg/kafka"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"time"
)

const (
	EventSource     = "notifier"
	DefaultPageSize = 100

	windowStart = 24 * time.Hour
	windowEnd   = 48 * time.Hour
)

type SalonLister interface {
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, *client.Metadata, error)
}

type AppointmentSearcher interface {
	Search(ctx context.Context, f model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, *client.Metadata, error)
}

// Job publishes a reminder for every active appointment starting between
// 24 and 48 hours from now.
type Job struct {
	Salons       SalonLister
	Appointments AppointmentSearcher
	Publisher    kafka.Publisher
	Log          *logger.Logger
	PageSize     int

	now func() time.Time
}

type Summary struct {
	Salons    int
	Published int
	Failed    int
}

func (j *Job) Run(ctx context.Context) (Summary, error) {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	at := now().UTC()
	from, to := at.Add(windowStart), at.Add(windowEnd)

	var sum Summary
	err := paginate(j.pageSize(), func(limit int, offset int64) (int, int64, error) {
		salons, meta, err := j.Salons.GetAll(ctx, limit, offset)
		if err != nil {
			return 0, 0, fmt.Errorf("list salons: %w", err)
		}
		for _, s := range salons {
			sum.Salons++
			published, failed := j.remindSalon(ctx, s.ID, from, to)
			sum.Published += published
			sum.Failed += failed
		}
		return len(salons), total(meta), nil
	})

	j.Log.Info("Reminder run finished",
		"from", from,
		"to", to,
		"salons", sum.Salons,
		"published", sum.Published,
		"failed", sum.Failed,
	)
	return sum, err
}

func (j *Job) remindSalon(ctx context.Context, salonID string, from, to time.Time) (published, failed int) {
	filter := model.AppointmentFilter{
		SalonID:  salonID,
		Statuses: model.ActiveStatuses,
		From:     &from,
		To:       &to,
	}

	err := paginate(j.pageSize(), func(limit int, offset int64) (int, int64, error) {
		page, meta, err := j.Appointments.Search(ctx, filter, limit, offset)
		if err != nil {
			return 0, 0, err
		}
		for _, a := range page {
			if err := j.publish(ctx, a); err != nil {
				failed++
				j.Log.Warn("Failed to publish reminder",
					"appointment_id", a.ID,
					"error", err,
				)
				continue
			}
			published++
		}
		return len(page), total(meta), nil
	})
	if err != nil {
		failed++
		j.Log.Error("Failed to search appointments for reminders",
			"salon_id", salonID,
			"error", err,
		)
	}
	return published, failed
}

func (j *Job) publish(ctx context.Context, a *model.Appointment) error {
	e, err := kafka.NewEvent(kafka.EventAppointmentReminder, EventSource, a.ProfessionalID, kafka.PayloadOf(a))
	if err != nil {
		return err
	}
	return kafka.PublishEvent(ctx, j.Publisher, e)
}

func (j *Job) pageSize() int {
	if j.PageSize > 0 {
		return j.PageSize
	}
	return DefaultPageSize
}

// paginate calls fetch until a short page or the reported total is reached.
func paginate(limit int, fetch func(limit int, offset int64) (n int, total int64, err error)) error {
	var offset int64
	for {
		n, totalCount, err := fetch(limit, offset)
		if err != nil {
			return err
		}
		offset += int64(n)
		if n == 0 || n < limit || (totalCount > 0 && offset >= totalCount) {
			return nil
		}
	}
}

func total(meta *client.Metadata) int64 {
	if meta == nil {
		return 0
	}
	return meta.TotalCount
}
