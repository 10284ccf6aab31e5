package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NotificationPreferences holds the structure for the
// notificationpreferences collection in mongo. One document per
// (userId, role) pair. Channel delivery requires the channel master
// switch and the per-event switch to both be true; browser delivery
// additionally requires the cached BrowserPermission flag, which is
// synced from the browser's actual permission state.
type NotificationPreferences struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID            string             `json:"userId" bson:"userId"`
	UserRole          string             `json:"userRole" bson:"userRole"`
	EmailEnabled      bool               `json:"emailEnabled" bson:"emailEnabled"`
	BrowserEnabled    bool               `json:"browserEnabled" bson:"browserEnabled"`
	EmailEvents       map[string]bool    `json:"emailEvents" bson:"emailEvents"`
	BrowserEvents     map[string]bool    `json:"browserEvents" bson:"browserEvents"`
	BrowserPermission bool               `json:"browserPermission" bson:"browserPermission"`
	CreatedAt         interface{}        `json:"createdAt" bson:"createdAt"`
	UpdatedAt         interface{}        `json:"updatedAt" bson:"updatedAt"`
}

// EmailAllows reports whether the email channel is open for the given
// event type. A missing per-event entry counts as enabled so that new
// event types are opt-out rather than silently dropped.
func (p NotificationPreferences) EmailAllows(eventType string) bool {
	if !p.EmailEnabled {
		return false
	}
	if p.EmailEvents == nil {
		return true
	}
	enabled, ok := p.EmailEvents[eventType]
	return !ok || enabled
}

// BrowserAllows reports whether the browser channel is open for the
// given event type, including the cached permission flag.
func (p NotificationPreferences) BrowserAllows(eventType string) bool {
	if !p.BrowserEnabled || !p.BrowserPermission {
		return false
	}
	if p.BrowserEvents == nil {
		return true
	}
	enabled, ok := p.BrowserEvents[eventType]
	return !ok || enabled
}

// DefaultNotificationPreferences returns the preferences assumed for a
// user that never saved any: both channels on for every event, but no
// browser permission until the browser reports one.
func DefaultNotificationPreferences(userID, userRole string) NotificationPreferences {
	return NotificationPreferences{
		UserID:            userID,
		UserRole:          userRole,
		EmailEnabled:      true,
		BrowserEnabled:    true,
		EmailEvents:       map[string]bool{},
		BrowserEvents:     map[string]bool{},
		BrowserPermission: false,
	}
}
