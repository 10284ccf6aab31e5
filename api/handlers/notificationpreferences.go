package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// NotificationPreferences exported for testing purposes
type NotificationPreferences struct {
	DB databases.NotificationPreferencesDatabase
}

// GetClientPreferencesHandler returns a client's notification preferences
func (np NotificationPreferences) GetClientPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	np.getPreferences(w, r, models.RoleClient)
}

// GetServicePreferencesHandler returns a provider's notification preferences
func (np NotificationPreferences) GetServicePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	np.getPreferences(w, r, models.RoleService)
}

// SaveClientPreferencesHandler upserts a client's notification preferences
func (np NotificationPreferences) SaveClientPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	np.savePreferences(w, r, models.RoleClient)
}

// SaveServicePreferencesHandler upserts a provider's notification preferences
func (np NotificationPreferences) SaveServicePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	np.savePreferences(w, r, models.RoleService)
}

// getPreferences returns the stored document, or the defaults when the
// user never saved any. The defaults are not persisted on read.
func (np NotificationPreferences) getPreferences(w http.ResponseWriter, r *http.Request, role string) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		config.ErrorStatus("user_id query param is required", http.StatusBadRequest, w, fmt.Errorf("missing user_id"))
		return
	}

	var prefs models.NotificationPreferences
	err := np.DB.FindOne(context.Background(), bson.M{"userId": userID, "userRole": role}).Decode(&prefs)
	if err == mongo.ErrNoDocuments {
		prefs = models.DefaultNotificationPreferences(userID, role)
	} else if err != nil {
		config.ErrorStatus("failed to get notification preferences", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(prefs)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (np NotificationPreferences) savePreferences(w http.ResponseWriter, r *http.Request, role string) {
	var prefs models.NotificationPreferences
	err := json.NewDecoder(r.Body).Decode(&prefs)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if prefs.UserID == "" {
		config.ErrorStatus("userId is required", http.StatusBadRequest, w, fmt.Errorf("missing userId"))
		return
	}
	prefs.UserRole = role

	now := time.Now().UTC()
	upsert := true
	_, err = np.DB.UpdateOne(context.Background(),
		bson.M{"userId": prefs.UserID, "userRole": role},
		bson.M{
			"$set": bson.M{
				"emailEnabled":      prefs.EmailEnabled,
				"browserEnabled":    prefs.BrowserEnabled,
				"emailEvents":       prefs.EmailEvents,
				"browserEvents":     prefs.BrowserEvents,
				"browserPermission": prefs.BrowserPermission,
				"updatedAt":         now,
			},
			"$setOnInsert": bson.M{
				"userId":    prefs.UserID,
				"userRole":  role,
				"createdAt": now,
			},
		},
		&options.UpdateOptions{Upsert: &upsert})
	if err != nil {
		config.ErrorStatus("failed to save notification preferences", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(prefs)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SyncBrowserPermissionHandler caches the browser's actual notification
// permission state. The browser reports it on page load; delivery
// decisions read the cached flag, never the browser.
func (np NotificationPreferences) SyncBrowserPermissionHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID     string `json:"userId"`
		UserRole   string `json:"userRole"`
		Permission bool   `json:"permission"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UserID == "" || (body.UserRole != models.RoleClient && body.UserRole != models.RoleService) {
		config.ErrorStatus("userId and a valid userRole are required", http.StatusBadRequest, w, fmt.Errorf("missing or invalid fields"))
		return
	}

	now := time.Now().UTC()
	defaults := models.DefaultNotificationPreferences(body.UserID, body.UserRole)
	upsert := true
	_, err = np.DB.UpdateOne(context.Background(),
		bson.M{"userId": body.UserID, "userRole": body.UserRole},
		bson.M{
			"$set": bson.M{
				"browserPermission": body.Permission,
				"updatedAt":         now,
			},
			"$setOnInsert": bson.M{
				"userId":         body.UserID,
				"userRole":       body.UserRole,
				"emailEnabled":   defaults.EmailEnabled,
				"browserEnabled": defaults.BrowserEnabled,
				"emailEvents":    defaults.EmailEvents,
				"browserEvents":  defaults.BrowserEvents,
				"createdAt":      now,
			},
		},
		&options.UpdateOptions{Upsert: &upsert})
	if err != nil {
		config.ErrorStatus("failed to sync browser permission", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]bool{"browserPermission": body.Permission})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
