package repository

import (
	"salonbook/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildSearchFilter(t *testing.T) {
	from := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name   string
		filter model.AppointmentFilter
		want   bson.M
	}{
		{"empty", model.AppointmentFilter{}, bson.M{}},
		{
			name:   "single status",
			filter: model.AppointmentFilter{SalonID: "s1", Statuses: []model.AppointmentStatus{model.StatusConfirmed}},
			want:   bson.M{"salon_id": "s1", "status": model.StatusConfirmed},
		},
		{
			name:   "active window",
			filter: model.AppointmentFilter{ProfessionalID: "p1", Statuses: model.ActiveStatuses, From: &from, To: &to},
			want: bson.M{
				"professional_id": "p1",
				"status":          bson.M{"$in": model.ActiveStatuses},
				"start_time":      bson.M{"$gte": from, "$lt": to},
			},
		},
		{
			name:   "open ended",
			filter: model.AppointmentFilter{From: &from},
			want:   bson.M{"start_time": bson.M{"$gte": from}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSearchFilter(tt.filter))
		})
	}
}
