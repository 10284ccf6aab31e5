package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Review holds the structure for the reviews collection in mongo
type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ServiceID string             `json:"serviceId" bson:"serviceId"`
	ClientID  string             `json:"clientId" bson:"clientId"`
	RequestID string             `json:"requestId" bson:"requestId"`
	Rating    int                `json:"rating" bson:"rating"` // 1..5
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt interface{}        `json:"createdAt" bson:"createdAt"`
}
