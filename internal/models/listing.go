package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Listing is the subset of a property listing the realtime core reads.
type Listing struct {
	ID      primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name    string               `bson:"name" json:"name"`
	UserRef primitive.ObjectID   `bson:"user_ref" json:"userRef"`
	Likes   []primitive.ObjectID `bson:"likes,omitempty" json:"likes,omitempty"`
}
