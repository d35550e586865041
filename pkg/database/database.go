package database

import (
	"context"
	"errors"
	"log"
	"time"

	authdomain "devnudge-backend/internal/auth/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"
	reminderdomain "devnudge-backend/internal/reminder/domain"
	"devnudge-backend/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// NewPostgresConnection opens the relational store. Users, accounts and device tokens always live here.
func NewPostgresConnection(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	log.Println("Database connected successfully")
	return db, nil
}

// AutoMigrate creates or updates every relational table. withReminders is false when
// reminders, integrations and sync runs are kept in MongoDB.
func AutoMigrate(db *gorm.DB, withReminders bool) error {
	models := []interface{}{&authdomain.User{}, &authdomain.Account{}, &authdomain.FCMToken{}}
	if withReminders {
		models = append(models, &reminderdomain.Reminder{}, &integrationdomain.Integration{}, &integrationdomain.SyncRun{})
	}
	return db.AutoMigrate(models...)
}

// NewMongoDatabase connects to MongoDB and verifies the connection with a ping
func NewMongoDatabase(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI environment variable not set")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Printf("MongoDB connected successfully (database %s)", cfg.MongoDatabase)
	return client.Database(cfg.MongoDatabase), nil
}
