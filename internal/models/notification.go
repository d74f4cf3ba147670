package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sender is the denormalised actor stored on a notification.
type Sender struct {
	ID    primitive.ObjectID `bson:"id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
}

// Meta is the persisted form of a Kind. Type and ListingID are the dedup keys.
type Meta struct {
	Type        string                 `bson:"type" json:"type"`
	ListingID   *primitive.ObjectID    `bson:"listing_id,omitempty" json:"listingId,omitempty"`
	ListingName string                 `bson:"listing_name,omitempty" json:"listingName,omitempty"`
	BookingID   *primitive.ObjectID    `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	MessageID   *primitive.ObjectID    `bson:"message_id,omitempty" json:"messageId,omitempty"`
	Action      string                 `bson:"action,omitempty" json:"action,omitempty"`
	Extra       map[string]interface{} `bson:"extra,omitempty" json:"extra,omitempty"`
}

// Notification is owned by the notifications collection. Only IsRead ever
// changes after insert.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"`
	Sender    *Sender             `bson:"sender,omitempty" json:"sender"`
	Booking   *primitive.ObjectID `bson:"booking,omitempty" json:"booking"`
	Meta      Meta                `bson:"meta" json:"meta"`
	IsRead    bool                `bson:"is_read" json:"isRead"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// NotificationPush is the trimmed form pushed over the socket.
type NotificationPush struct {
	ID        primitive.ObjectID `json:"_id"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	CreatedAt time.Time          `json:"createdAt"`
	IsRead    bool               `json:"isRead"`
	Sender    *Sender            `json:"sender"`
	Meta      Meta               `json:"meta"`
}

// Push trims n for real-time delivery.
func (n *Notification) Push() NotificationPush {
	return NotificationPush{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		IsRead:    n.IsRead,
		Sender:    n.Sender,
		Meta:      n.Meta,
	}
}

// NotificationPage is one page of a recipient's notifications.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	Page          int64          `json:"page"`
	Pages         int64          `json:"pages"`
}
