package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB databases.PushTokenDatabase
}

type tokenRequest struct {
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
	FCMToken string `json:"fcmToken"`
}

// RegisterTokenHandler registers a push token for a user, refreshing
// updatedAt when the token is already known so the stale-token cleanup
// keeps it alive
func (pt PushToken) RegisterTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UserID == "" || body.FCMToken == "" {
		config.ErrorStatus("userId and fcmToken are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if body.UserRole != models.RoleClient && body.UserRole != models.RoleService {
		config.ErrorStatus("userRole must be client or service", http.StatusBadRequest, w, fmt.Errorf("invalid userRole: %q", body.UserRole))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	upsert := true
	_, err = pt.DB.UpdateOne(context.Background(),
		bson.M{"token": body.FCMToken},
		bson.M{
			"$set": bson.M{
				"userId":    body.UserID,
				"userRole":  body.UserRole,
				"updatedAt": now,
			},
			"$setOnInsert": bson.M{
				"token":     body.FCMToken,
				"createdAt": now,
			},
		},
		&options.UpdateOptions{Upsert: &upsert})
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]bool{"registered": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnregisterTokenHandler removes a push token. Unknown tokens succeed,
// the browser retries unregister on logout.
func (pt PushToken) UnregisterTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.FCMToken == "" {
		config.ErrorStatus("fcmToken is required", http.StatusBadRequest, w, fmt.Errorf("missing fcmToken"))
		return
	}

	err = pt.DB.DeleteOne(context.Background(), bson.M{"token": body.FCMToken})
	if err != nil {
		config.ErrorStatus("failed to unregister push token", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]bool{"unregistered": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
