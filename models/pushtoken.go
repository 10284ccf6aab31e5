package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PushToken holds the structure for the pushtokens collection in mongo.
// A token identifies one browser/device registration; a user with
// several open tabs or devices holds several concurrent tokens.
type PushToken struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	UserRole  string             `json:"userRole" bson:"userRole"` // "client" or "service"
	Token     string             `json:"token" bson:"token"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
