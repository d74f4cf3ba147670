package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking actions accepted on an inquiry.
var BookingActions = map[string]bool{
	"rent":  true,
	"sale":  true,
	"buy":   true,
	"sell":  true,
	"visit": true,
}

// Booking is an inquiry from a buyer to the listing agent.
type Booking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	BuyerID    primitive.ObjectID `bson:"buyer_id" json:"buyerId"`
	AgentID    primitive.ObjectID `bson:"agent_id" json:"agentId"`
	PropertyID primitive.ObjectID `bson:"property_id" json:"propertyId"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Message    string             `bson:"message" json:"message"`
	Action     string             `bson:"action" json:"action"`
	Status     string             `bson:"status" json:"status"` // pending, approved, rejected, completed
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
