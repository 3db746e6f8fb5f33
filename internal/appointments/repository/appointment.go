package repository

import (
	"context"
	"errors"
	"fmt"
	appointmentserrors "salonbook/internal/appointments/errors"
	"salonbook/pkg/config"
	mongotx "salonbook/pkg/db/mongo"
	"salonbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"
)

type mongoAppointmentRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	// FindBlocking returns the professional's non-cancelled appointments
	// that intersect [from, to), ordered by start time.
	FindBlocking(ctx context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error)
	Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context, filter model.AppointmentFilter) (int64, error)
	// UpdateStatus moves the appointment from one status to another and
	// fails with ErrStatusChanged when it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s at %s", appointmentserrors.ErrSlotTaken, a.ProfessionalID, a.StartTime.Format(time.RFC3339))
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var a model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &a, nil
}

func (r *mongoAppointmentRepository) FindBlocking(ctx context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	filter := bson.M{
		"professional_id": professionalID,
		"status":          bson.M{"$ne": model.StatusCancelled},
		"start_time":      bson.M{"$lt": to},
		"end_time":        bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocking appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) Search(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, BuildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) Count(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, BuildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// BuildSearchFilter matches appointments whose start time lies in
// [From, To). Zero fields do not filter.
func BuildSearchFilter(f model.AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.SalonID != "" {
		filter["salon_id"] = f.SalonID
	}
	if f.ProfessionalID != "" {
		filter["professional_id"] = f.ProfessionalID
	}
	if len(f.Statuses) == 1 {
		filter["status"] = f.Statuses[0]
	} else if len(f.Statuses) > 1 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}

	if f.From != nil || f.To != nil {
		window := bson.M{}
		if f.From != nil {
			window["$gte"] = *f.From
		}
		if f.To != nil {
			window["$lt"] = *f.To
		}
		filter["start_time"] = window
	}
	return filter
}

func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     to,
		"updated_at": at,
	}
	if to == model.StatusCancelled {
		set["cancelled_at"] = at
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return appointmentserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
