package repository

import (
	"context"
	"fmt"
	appointmentserrors "salonbook/internal/appointments/errors"
	"salonbook/pkg/config"
	mongotx "salonbook/pkg/db/mongo"
	"salonbook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const SlotLockCollectionName = "Slot_locks"

// SlotLockRepository stores advisory locks on calendar buckets.
type SlotLockRepository interface {
	// Acquire fails with ErrSlotLocked while another owner holds an
	// unexpired lock with the same id.
	Acquire(ctx context.Context, lock *model.SlotLock) error
	Release(ctx context.Context, id, owner string) error
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(SlotLockCollectionName),
	}
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, lock *model.SlotLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongotx.IsDuplicateKey(err) {
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so an expired lock can
	// linger. Take it over if so.
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": lock.CreatedAt}})
	if err != nil {
		return fmt.Errorf("failed to clear expired slot lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotLocked, lock.ID)
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotLocked, lock.ID)
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, id, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreOpTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
