package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/api/notifications"
	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// Message exported for testing purposes
type Message struct {
	DB       databases.MessageDatabase
	UDB      databases.UserDatabase
	Notifier *notifications.Router
}

// CreateMessageHandler persists a message and notifies the recipient.
// This is the REST twin of the websocket new_message uplink; clients
// without an open socket post here.
func (m Message) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	var message models.Message
	err := json.NewDecoder(r.Body).Decode(&message)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if message.RequestID == "" || message.SenderID == "" || message.RecipientID == "" || message.Content == "" {
		config.ErrorStatus("requestId, senderId, recipientId and content are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if message.SenderRole != models.RoleClient && message.SenderRole != models.RoleService {
		config.ErrorStatus("senderRole must be client or service", http.StatusBadRequest, w, fmt.Errorf("invalid senderRole: %q", message.SenderRole))
		return
	}

	message.ID = primitive.NewObjectID()
	message.Read = false
	message.CreatedAt = primitive.NewDateTimeFromTime(time.Now().UTC())

	_, err = m.DB.InsertOne(context.Background(), message)
	if err != nil {
		config.ErrorStatus("failed to insert message", http.StatusInternalServerError, w, err)
		return
	}

	recipientRole := models.RoleClient
	if message.SenderRole == models.RoleClient {
		recipientRole = models.RoleService
	}

	senderName := ""
	var sender models.User
	if err := m.UDB.FindOne(context.Background(), bson.M{"_id": message.SenderID}).Decode(&sender); err == nil {
		senderName = sender.Details.Name
		if sender.Details.Role == models.RoleService && sender.Details.CompanyName != "" {
			senderName = sender.Details.CompanyName
		}
	}

	go m.Notifier.Route(context.Background(), notifications.Event{
		Type: notifications.EventNewMessage,
		Payload: map[string]interface{}{
			"messageId":  message.ID.Hex(),
			"requestId":  message.RequestID,
			"senderId":   message.SenderID,
			"senderName": senderName,
			"content":    message.Content,
		},
		RecipientID:   message.RecipientID,
		RecipientRole: recipientRole,
	})

	b, err := json.Marshal(message)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// MessagesByRequestIDHandler returns the message thread between the
// caller and a counterpart on a request
func (m Message) MessagesByRequestIDHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]
	userID := r.URL.Query().Get("user_id")
	counterpartID := r.URL.Query().Get("counterpart_id")

	filter := bson.M{"requestId": requestID}
	if userID != "" && counterpartID != "" {
		filter["$or"] = []bson.M{
			{"senderId": userID, "recipientId": counterpartID},
			{"senderId": counterpartID, "recipientId": userID},
		}
	}

	dbResp, err := m.DB.Find(context.TODO(), filter,
		&options.FindOptions{Sort: bson.M{"createdAt": 1}})
	if err != nil {
		config.ErrorStatus("failed to get messages by request ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Message{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ConversationsHandler returns the caller's conversation list: one
// entry per (request, counterpart) pair with the last message and the
// unread count. Derived by aggregation, never stored.
func (m Message) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		config.ErrorStatus("user_id query param is required", http.StatusBadRequest, w, fmt.Errorf("missing user_id"))
		return
	}

	pipeline := []bson.M{
		{"$match": bson.M{"$or": []bson.M{
			{"senderId": userID},
			{"recipientId": userID},
		}}},
		{"$sort": bson.M{"createdAt": -1}},
		{"$addFields": bson.M{
			"counterpartId": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": []interface{}{"$senderId", userID}},
				"then": "$recipientId",
				"else": "$senderId",
			}},
		}},
		{"$group": bson.M{
			"_id":           bson.M{"requestId": "$requestId", "counterpartId": "$counterpartId"},
			"lastMessage":   bson.M{"$first": "$$ROOT"},
			"counterpartId": bson.M{"$first": "$counterpartId"},
			"unreadCount": bson.M{"$sum": bson.M{"$cond": bson.M{
				"if": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$recipientId", userID}},
					{"$eq": []interface{}{"$read", false}},
				}},
				"then": 1,
				"else": 0,
			}}},
		}},
		{"$addFields": bson.M{"_id": "$_id.requestId"}},
		{"$sort": bson.M{"lastMessage.createdAt": -1}},
	}

	cursor, err := m.DB.Aggregate(context.TODO(), pipeline)
	if err != nil {
		config.ErrorStatus("failed to aggregate conversations", http.StatusInternalServerError, w, err)
		return
	}

	var conversations []models.Conversation
	err = cursor.Decode(&conversations)
	if err != nil {
		config.ErrorStatus("failed to decode conversations", http.StatusInternalServerError, w, err)
		return
	}
	if len(conversations) == 0 {
		conversations = []models.Conversation{}
	}
	b, err := json.Marshal(conversations)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnreadCountHandler returns the caller's total unread message count
func (m Message) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		config.ErrorStatus("user_id query param is required", http.StatusBadRequest, w, fmt.Errorf("missing user_id"))
		return
	}

	count, err := m.DB.CountDocuments(context.TODO(), bson.M{
		"recipientId": userID,
		"read":        false,
	})
	if err != nil {
		config.ErrorStatus("failed to count unread messages", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]int64{"unreadCount": count})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkReadHandler marks every message from a counterpart on a request
// as read
func (m Message) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID        string `json:"userId"`
		RequestID     string `json:"requestId"`
		CounterpartID string `json:"counterpartId"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UserID == "" || body.RequestID == "" {
		config.ErrorStatus("userId and requestId are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	filter := bson.M{
		"requestId":   body.RequestID,
		"recipientId": body.UserID,
		"read":        false,
	}
	if body.CounterpartID != "" {
		filter["senderId"] = body.CounterpartID
	}

	res, err := m.DB.UpdateMany(context.Background(), filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		config.ErrorStatus("failed to mark messages as read", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]int64{"modified": res.ModifiedCount})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
