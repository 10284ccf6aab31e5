package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Request holds the structure for the requests collection in mongo. A
// request is a client's posted service need.
type Request struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ClientID       string             `json:"clientId" bson:"clientId"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	County         string             `json:"county" bson:"county"`
	Cities         []string           `json:"cities" bson:"cities"`
	PreferredDates []string           `json:"preferredDates" bson:"preferredDates"`
	PhotoURLs      []string           `json:"photoUrls" bson:"photoUrls"`
	Status         string             `json:"status" bson:"status"` // "active", "resolved" or "cancelled"
	CreatedAt      interface{}        `json:"createdAt" bson:"createdAt"`
	UpdatedAt      interface{}        `json:"updatedAt" bson:"updatedAt"`
}

// Request status values.
const (
	RequestStatusActive    = "active"
	RequestStatusResolved  = "resolved"
	RequestStatusCancelled = "cancelled"
)
