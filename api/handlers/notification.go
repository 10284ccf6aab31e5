package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/autoserv-ro/autoserv-api/api/notifications"
	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// Notification exported for testing purposes
type Notification struct {
	Hub      *notifications.Hub
	Notifier *notifications.Router
	UDB      databases.UserDatabase
}

// ServeWS upgrades the request to a websocket and hands it to the hub
func (n Notification) ServeWS(w http.ResponseWriter, r *http.Request) {
	n.Hub.ServeWS(w, r)
}

type sendNotificationRequest struct {
	UserIDs []string               `json:"userIds"`
	Topic   string                 `json:"topic"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Data    map[string]interface{} `json:"data"`
}

// SendNotificationHandler pushes an arbitrary notification to a list of
// users or to a topic. A topic is a role broadcast: "clients",
// "services" or "all".
func (n Notification) SendNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var body sendNotificationRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(body.UserIDs) == 0 && body.Topic == "" {
		config.ErrorStatus("userIds or topic is required", http.StatusBadRequest, w, fmt.Errorf("no recipients"))
		return
	}

	eventType := body.Type
	if eventType == "" {
		eventType = "ANNOUNCEMENT"
	}
	payload := map[string]interface{}{
		"title": body.Title,
		"body":  body.Body,
	}
	for k, v := range body.Data {
		payload[k] = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := 0
	if body.Topic != "" {
		roles, err := topicRoles(body.Topic)
		if err != nil {
			config.ErrorStatus("invalid topic", http.StatusBadRequest, w, err)
			return
		}
		users, err := n.UDB.Find(ctx, bson.M{"user.role": bson.M{"$in": roles}})
		if err != nil {
			config.ErrorStatus("failed to load topic recipients", http.StatusInternalServerError, w, err)
			return
		}
		for _, user := range users {
			n.Notifier.Route(ctx, notifications.Event{
				Type:          eventType,
				Payload:       payload,
				RecipientID:   user.ID,
				RecipientRole: user.Details.Role,
			})
			sent++
		}
	} else {
		for _, userID := range body.UserIDs {
			var user models.User
			err := n.UDB.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
			if err != nil {
				continue
			}
			n.Notifier.Route(ctx, notifications.Event{
				Type:          eventType,
				Payload:       payload,
				RecipientID:   user.ID,
				RecipientRole: user.Details.Role,
			})
			sent++
		}
	}

	b, _ := json.Marshal(map[string]int{"sent": sent})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func topicRoles(topic string) ([]string, error) {
	switch topic {
	case "clients":
		return []string{models.RoleClient}, nil
	case "services":
		return []string{models.RoleService}, nil
	case "all":
		return []string{models.RoleClient, models.RoleService}, nil
	}
	return nil, fmt.Errorf("unknown topic: %q", topic)
}
