package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message holds the structure for the messages collection in mongo.
// Messages always belong to a request; a conversation is the set of
// messages sharing a (requestId, counterpart) pair and is derived by
// aggregation, never stored.
type Message struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RequestID   string             `json:"requestId" bson:"requestId"`
	SenderID    string             `json:"senderId" bson:"senderId"`
	SenderRole  string             `json:"senderRole" bson:"senderRole"`
	RecipientID string             `json:"recipientId" bson:"recipientId"`
	Content     string             `json:"content" bson:"content"`
	Read        bool               `json:"read" bson:"read"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Conversation is the aggregation result for the conversation listing:
// the counterpart, the last message exchanged and how many of their
// messages are still unread.
type Conversation struct {
	RequestID     string  `json:"requestId" bson:"_id"`
	CounterpartID string  `json:"counterpartId" bson:"counterpartId"`
	LastMessage   Message `json:"lastMessage" bson:"lastMessage"`
	UnreadCount   int64   `json:"unreadCount" bson:"unreadCount"`
}
