package repository

import (
	"context"
	"errors"
	"time"

	"devnudge-backend/internal/reminder/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const remindersCollection = "reminders"

// mongoReminderRepository implements ReminderRepository on a MongoDB collection
type mongoReminderRepository struct {
	col *mongo.Collection
}

// NewMongoReminderRepository creates the repository and ensures its indexes.
// The partial unique index keeps at most one pending reminder per (userId, sourceId).
func NewMongoReminderRepository(ctx context.Context, db *mongo.Database) (ReminderRepository, error) {
	col := db.Collection(remindersCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "sourceId", Value: 1}},
			Options: options.Index().
				SetName("uniq_pending_source").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status":   domain.StatusPending,
					"sourceId": bson.M{"$type": "string"},
				}),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dueAt", Value: 1}}},
		{Keys: bson.D{{Key: "autoFollowUp", Value: 1}, {Key: "status", Value: 1}, {Key: "nextFollowUpAt", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &mongoReminderRepository{col: col}, nil
}

func (r *mongoReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.New().String()
	}
	if reminder.Status == "" {
		reminder.Status = domain.StatusPending
	}
	now := time.Now()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, reminder)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *mongoReminderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.col.FindOne(ctx, filter).Decode(&reminder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *mongoReminderRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *mongoReminderRepository) FindPendingBySource(ctx context.Context, userID, sourceID string) (*domain.Reminder, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "sourceId": sourceID, "status": domain.StatusPending})
}

func (r *mongoReminderRepository) FindByUser(ctx context.Context, userID string, filter domain.ReminderFilter) ([]*domain.Reminder, error) {
	query := bson.M{"userId": userID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	return r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "dueAt", Value: 1}}))
}

func (r *mongoReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	reminder.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": reminder.ID, "userId": reminder.UserID}, reminder)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePending
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *mongoReminderRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoReminderRepository) FindDueForFollowUp(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return r.find(ctx, bson.M{
		"autoFollowUp":   true,
		"status":         domain.StatusPending,
		"nextFollowUpAt": bson.M{"$lte": now},
	}, options.Find().SetSort(bson.D{{Key: "nextFollowUpAt", Value: 1}}))
}

func (r *mongoReminderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Reminder, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reminders := make([]*domain.Reminder, 0)
	if err := cur.All(ctx, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}
