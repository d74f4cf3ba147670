package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{collection: db.Collection("bookings")}
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = "pending"
	}

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert booking")
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}
