package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatehub/realtime/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{collection: db.Collection("listings")}
}

func (r *ListingRepository) GetListingByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "user_ref": 1, "likes": 1})

	var listing models.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}
