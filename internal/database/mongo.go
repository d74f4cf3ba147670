package database

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/realtime/internal/config"
	"github.com/estatehub/realtime/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// ConnectDB dials MongoDB and returns the configured database.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Log.Infof("Connected to MongoDB database %q", cfg.MongoDB)
	return client.Database(cfg.MongoDB), nil
}

// Disconnect closes the client behind db.
func Disconnect(db *mongo.Database) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		logger.Log.Errorf("Error closing MongoDB connection: %v", err)
	}
}
