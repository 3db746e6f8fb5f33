package repository

import (
	"context"
	"errors"
	"fmt"
	salonserrors "salonbook/internal/salons/errors"
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
	CollectionName = "Salons"
)

type mongoSalonRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type SalonRepository interface {
	Create(ctx context.Context, salon *model.Salon) error
	FindByID(ctx context.Context, id string) (*model.Salon, error)
	FindBySlug(ctx context.Context, slug string) (*model.Salon, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, salon *model.Salon) (*mongo.UpdateResult, error)
	ReplaceServices(ctx context.Context, id string, services []model.Service) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoSalonRepository(cfg *config.Config) SalonRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSalonRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSalonRepository) Create(ctx context.Context, salon *model.Salon) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	salon.CreatedAt = now
	salon.UpdatedAt = now
	if salon.Services == nil {
		salon.Services = []model.Service{}
	}

	result, err := r.collection.InsertOne(ctx, salon)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", salonserrors.ErrDuplicateSlug, salon.Slug)
		}
		return fmt.Errorf("failed to create salon: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		salon.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSalonRepository) FindByID(ctx context.Context, id string) (*model.Salon, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", salonserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoSalonRepository) FindBySlug(ctx context.Context, slug string) (*model.Salon, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *mongoSalonRepository) findOne(ctx context.Context, filter bson.M) (*model.Salon, error) {
	var salon model.Salon
	err := r.collection.FindOne(ctx, filter).Decode(&salon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, salonserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find salon: %w", err)
	}
	return &salon, nil
}

func (r *mongoSalonRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Salon, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find salons: %w", err)
	}
	defer cursor.Close(ctx)

	salons := []*model.Salon{}
	if err = cursor.All(ctx, &salons); err != nil {
		return nil, fmt.Errorf("failed to decode salons: %w", err)
	}

	return salons, nil
}

func (r *mongoSalonRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count salons: %w", err)
	}
	return count, nil
}

func (r *mongoSalonRepository) Update(ctx context.Context, id string, salon *model.Salon) (*mongo.UpdateResult, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", salonserrors.ErrInvalidID, id)
	}

	salon.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":                 salon.Name,
			"slug":                 salon.Slug,
			"phone":                salon.Phone,
			"email":                salon.Email,
			"address":              salon.Address,
			"time_zone":            salon.TimeZone,
			"slot_granularity_min": salon.SlotGranularity,
			"services":             salon.Services,
			"updated_at":           salon.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", salonserrors.ErrDuplicateSlug, salon.Slug)
		}
		return nil, fmt.Errorf("failed to update salon: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, salonserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoSalonRepository) ReplaceServices(ctx context.Context, id string, services []model.Service) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", salonserrors.ErrInvalidID, id)
	}
	if services == nil {
		services = []model.Service{}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{
			"services":   services,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to replace salon services: %w", err)
	}
	if result.MatchedCount == 0 {
		return salonserrors.ErrNotFound
	}
	return nil
}

func (r *mongoSalonRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
