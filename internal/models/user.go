package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the read-only view of an account needed for display names.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}
