package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Offer holds the structure for the offers collection in mongo. An
// offer is a service provider's priced response to a request.
type Offer struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RequestID      string             `json:"requestId" bson:"requestId"`
	ServiceID      string             `json:"serviceId" bson:"serviceId"`
	ClientID       string             `json:"clientId" bson:"clientId"`
	Price          float64            `json:"price" bson:"price"`
	AvailableDates []string           `json:"availableDates" bson:"availableDates"`
	Details        string             `json:"details" bson:"details"`
	Status         string             `json:"status" bson:"status"` // "pending", "accepted", "rejected" or "cancelled"
	CreatedAt      interface{}        `json:"createdAt" bson:"createdAt"`
	UpdatedAt      interface{}        `json:"updatedAt" bson:"updatedAt"`
}

// Offer status values.
const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCancelled = "cancelled"
)
