package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("messages")}
}

func (r *ChatRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

func (r *ChatRepository) SendMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.UpdatedAt = msg.CreatedAt

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert chat message")
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// GetUserMessages returns every message where userID is buyer or seller,
// newest first.
func (r *ChatRepository) GetUserMessages(ctx context.Context, userID primitive.ObjectID) ([]models.ChatMessage, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"buyer_id": userID},
			{"seller_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, filter, opts)
}

// GetThread returns one listing conversation between two users, oldest first.
func (r *ChatRepository) GetThread(ctx context.Context, listingID, userID, otherID primitive.ObjectID) ([]models.ChatMessage, error) {
	filter := bson.M{
		"listing_id": listingID,
		"$or": []bson.M{
			{"buyer_id": userID, "seller_id": otherID},
			{"buyer_id": otherID, "seller_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *ChatRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ChatMessage, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	for cursor.Next(ctx) {
		var msg models.ChatMessage
		if err := cursor.Decode(&msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, cursor.Err()
}
