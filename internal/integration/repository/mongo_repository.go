package repository

import (
	"context"
	"errors"
	"time"

	"devnudge-backend/internal/integration/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	integrationsCollection = "integrations"
	syncRunsCollection     = "sync_runs"
)

type mongoIntegrationRepository struct {
	col *mongo.Collection
}

// NewMongoIntegrationRepository creates the repository with a unique (userId, type) index
func NewMongoIntegrationRepository(ctx context.Context, db *mongo.Database) (IntegrationRepository, error) {
	col := db.Collection(integrationsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}},
		Options: options.Index().SetName("uniq_user_type").SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &mongoIntegrationRepository{col: col}, nil
}

func (r *mongoIntegrationRepository) Upsert(ctx context.Context, integration *domain.Integration) (*domain.Integration, error) {
	now := time.Now()
	config := integration.Config
	if config == nil {
		config = domain.ConfigMap{}
	}

	filter := bson.M{"userId": integration.UserID, "type": integration.Type}
	update := bson.M{
		"$set": bson.M{
			"enabled":   integration.Enabled,
			"config":    config,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.New().String(),
			"createdAt": now,
		},
	}

	var stored domain.Integration
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *mongoIntegrationRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Integration, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "type", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	integrations := make([]*domain.Integration, 0)
	if err := cur.All(ctx, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *mongoIntegrationRepository) FindByUserAndType(ctx context.Context, userID string, provider domain.Provider) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.col.FindOne(ctx, bson.M{"userId": userID, "type": provider}).Decode(&integration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *mongoIntegrationRepository) FindEnabled(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error) {
	cur, err := r.col.Find(ctx, bson.M{"type": provider, "enabled": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	integrations := make([]*domain.Integration, 0)
	if err := cur.All(ctx, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *mongoIntegrationRepository) TouchLastSync(ctx context.Context, userID string, provider domain.Provider, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID, "type": provider},
		bson.M{"$set": bson.M{"lastSyncAt": at, "updatedAt": time.Now()}},
	)
	return err
}

type mongoSyncRunRepository struct {
	col *mongo.Collection
}

// NewMongoSyncRunRepository creates the sync history repository
func NewMongoSyncRunRepository(ctx context.Context, db *mongo.Database) (SyncRunRepository, error) {
	col := db.Collection(syncRunsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	return &mongoSyncRunRepository{col: col}, nil
}

func (r *mongoSyncRunRepository) Record(ctx context.Context, run *domain.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := r.col.InsertOne(ctx, run)
	return err
}

func (r *mongoSyncRunRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	runs := make([]*domain.SyncRun, 0)
	if err := cur.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
