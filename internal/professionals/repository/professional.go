package repository

import (
	"context"
	"errors"
	"fmt"
	professionalserrors "salonbook/internal/professionals/errors"
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
	CollectionName = "Professionals"
)

type mongoProfessionalRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ProfessionalRepository interface {
	Create(ctx context.Context, p *model.Professional) error
	FindByID(ctx context.Context, id string) (*model.Professional, error)
	Search(ctx context.Context, salonID string, active *bool, limit int, offset int64) ([]*model.Professional, error)
	CountSearch(ctx context.Context, salonID string, active *bool) (int64, error)
	Update(ctx context.Context, id string, p *model.Professional) (*mongo.UpdateResult, error)
	SetAvailability(ctx context.Context, id string, week model.WeeklyAvailability) error
	SetOverrides(ctx context.Context, id string, overrides []model.Override) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoProfessionalRepository(cfg *config.Config) ProfessionalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfessionalRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.DateOverrides == nil {
		p.DateOverrides = []model.Override{}
	}

	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	var p model.Professional
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, professionalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find professional: %w", err)
	}

	return &p, nil
}

func (r *mongoProfessionalRepository) Search(ctx context.Context, salonID string, active *bool, limit int, offset int64) ([]*model.Professional, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildSearchFilter(salonID, active), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search professionals: %w", err)
	}
	defer cursor.Close(ctx)

	professionals := []*model.Professional{}
	if err = cursor.All(ctx, &professionals); err != nil {
		return nil, fmt.Errorf("failed to decode professionals: %w", err)
	}

	return professionals, nil
}

func (r *mongoProfessionalRepository) CountSearch(ctx context.Context, salonID string, active *bool) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(salonID, active))
	if err != nil {
		return 0, fmt.Errorf("failed to count professionals: %w", err)
	}
	return count, nil
}

func buildSearchFilter(salonID string, active *bool) bson.M {
	filter := bson.M{"salon_id": salonID}
	if active != nil {
		filter["active"] = *active
	}
	return filter
}

func (r *mongoProfessionalRepository) Update(ctx context.Context, id string, p *model.Professional) (*mongo.UpdateResult, error) {
	return r.set(ctx, id, bson.M{
		"name":      p.Name,
		"specialty": p.Specialty,
		"phone":     p.Phone,
		"active":    p.Active,
	})
}

func (r *mongoProfessionalRepository) SetAvailability(ctx context.Context, id string, week model.WeeklyAvailability) error {
	_, err := r.set(ctx, id, bson.M{"recurring_availability": week})
	return err
}

func (r *mongoProfessionalRepository) SetOverrides(ctx context.Context, id string, overrides []model.Override) error {
	if overrides == nil {
		overrides = []model.Override{}
	}
	_, err := r.set(ctx, id, bson.M{"date_overrides": overrides})
	return err
}

func (r *mongoProfessionalRepository) set(ctx context.Context, id string, fields bson.M) (*mongo.UpdateResult, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to update professional: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, professionalserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoProfessionalRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
