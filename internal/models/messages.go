package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat roles as stored in ChatMessage.Sender.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ChatMessage is immutable once stored. A conversation is every message
// sharing the listing and the buyer/seller pair.
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ListingID      primitive.ObjectID `bson:"listing_id" json:"listingId"`
	BuyerID        primitive.ObjectID `bson:"buyer_id" json:"buyerId"`
	SellerID       primitive.ObjectID `bson:"seller_id" json:"sellerId"`
	Message        string             `bson:"message" json:"message"`
	Sender         string             `bson:"sender" json:"sender"`
	IsReadBySeller bool               `bson:"is_read_by_seller" json:"isReadBySeller"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Conversation is derived from messages, never stored.
type Conversation struct {
	ListingID       string    `json:"listingId"`
	BuyerID         string    `json:"buyerId"`
	SellerID        string    `json:"sellerId"`
	OtherUserID     string    `json:"otherUserId"`
	OtherUserName   string    `json:"otherUserName"`
	OtherUserAvatar string    `json:"otherUserAvatar,omitempty"`
	LastMessage     string    `json:"lastMessage"`
	Time            time.Time `json:"time"`
	Online          bool      `json:"online"`
}
