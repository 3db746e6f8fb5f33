package mongo

import (
	"context"
	"fmt"
	"salonbook/internal/migrations/mongo/validators"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SalonsCollection        = "Salons"
	ProfessionalsCollection = "Professionals"
	AppointmentsCollection  = "Appointments"
	SlotLocksCollection     = "Slot_locks"

	// ActiveSlotIndex rejects a second active appointment with the same
	// professional and start time.
	ActiveSlotIndex = "uniq_active_professional_start"
)

var (
	SalonsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("uniq_slug").SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}

	ProfessionalsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "salon_id", Value: 1}}},
		{Keys: bson.D{{Key: "salon_id", Value: 1}, {Key: "active", Value: 1}}},
	}

	AppointmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{
			Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().
				SetName(ActiveSlotIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": model.ActiveStatuses},
				}),
		},
		{Keys: bson.D{{Key: "salon_id", Value: 1}, {Key: "start_time", Value: 1}}},
	}

	SlotLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}
)

type Collection struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection in creation order.
func Collections() []Collection {
	return []Collection{
		{Name: SalonsCollection, Indexes: SalonsIndexes, Validator: validators.SalonValidator},
		{Name: ProfessionalsCollection, Indexes: ProfessionalsIndexes, Validator: validators.ProfessionalValidator},
		{Name: AppointmentsCollection, Indexes: AppointmentsIndexes, Validator: validators.AppointmentValidator},
		{Name: SlotLocksCollection, Indexes: SlotLocksIndexes, Validator: validators.SlotLockValidator},
	}
}

// RunMigration creates missing collections, refreshes validators on existing
// ones and ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
