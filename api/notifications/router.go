package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
	templates "github.com/autoserv-ro/autoserv-api/templates/html"
)

// Router is the delivery router: given a domain event and its
// recipient it consults the notification preferences and fans the
// event out over the applicable channels. Delivery is fire-and-forget;
// a failed channel is logged and dropped.
type Router struct {
	Prefs   databases.NotificationPreferencesDatabase
	Tokens  databases.PushTokenDatabase
	Users   databases.UserDatabase
	Hub     *Hub
	Email   *Dispatcher
	BaseURL string
}

// NewRouter wires a router and attaches it to the hub for message
// uplinks.
func NewRouter(prefs databases.NotificationPreferencesDatabase, tokens databases.PushTokenDatabase, users databases.UserDatabase, hub *Hub, email *Dispatcher, baseURL string) *Router {
	rt := &Router{
		Prefs:   prefs,
		Tokens:  tokens,
		Users:   users,
		Hub:     hub,
		Email:   email,
		BaseURL: baseURL,
	}
	hub.SetRouter(rt)
	return rt
}

// Route fans one event out. The websocket push is unconditional; the
// browser and email channels are gated by the recipient's preferences.
func (rt *Router) Route(ctx context.Context, e Event) {
	rt.Hub.SendToUser(e.RecipientID, e.RecipientRole, Envelope{Type: e.Type, Payload: e.Payload})

	prefs := rt.preferences(ctx, e.RecipientID, e.RecipientRole)

	if prefs.BrowserAllows(e.Type) {
		rt.pushBrowserNotification(ctx, e)
	}
	if prefs.EmailAllows(e.Type) {
		rt.sendEventEmail(ctx, e)
	}
}

// preferences loads the recipient's preferences, falling back to the
// defaults when none were ever saved.
func (rt *Router) preferences(ctx context.Context, userID, userRole string) models.NotificationPreferences {
	var prefs models.NotificationPreferences
	err := rt.Prefs.FindOne(ctx, bson.M{"userId": userID, "userRole": userRole}).Decode(&prefs)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			zap.S().Warnw("failed to load notification preferences, using defaults", "userId", userID, "error", err)
		}
		return models.DefaultNotificationPreferences(userID, userRole)
	}
	return prefs
}

// pushBrowserNotification asks the recipient's open tabs to raise an
// OS-level notification through the service worker. Users without a
// registered push token never granted permission, so there is nothing
// to show.
func (rt *Router) pushBrowserNotification(ctx context.Context, e Event) {
	tokens, err := rt.Tokens.Find(ctx, bson.M{"userId": e.RecipientID, "userRole": e.RecipientRole})
	if err != nil {
		zap.S().Warnw("failed to load push tokens", "userId", e.RecipientID, "error", err)
		return
	}
	if len(tokens) == 0 {
		zap.S().Debugw("no push tokens registered, skipping browser notification", "userId", e.RecipientID)
		return
	}

	// the tag lets the browser replace duplicate notifications raised
	// by concurrent tabs
	tag := e.Type
	if requestID := payloadString(e.Payload, "requestId"); requestID != "" {
		tag = fmt.Sprintf("%s-%s", e.Type, requestID)
	}

	rt.Hub.SendToUser(e.RecipientID, e.RecipientRole, Envelope{
		Type: TypeShowNotification,
		Payload: map[string]interface{}{
			"title": notificationTitle(e),
			"options": map[string]interface{}{
				"body": notificationBody(e),
				"tag":  tag,
				"data": e.Payload,
			},
		},
	})
}

func notificationBody(e Event) string {
	switch e.Type {
	case EventNewRequest:
		return payloadString(e.Payload, "title")
	case EventNewMessage:
		return payloadString(e.Payload, "content")
	case EventNewOffer, EventOfferStatusChanged:
		return payloadString(e.Payload, "requestTitle")
	}
	return ""
}

// sendEventEmail sends the canned email for the event, when one exists.
// Only four event shapes have templates; everything else is websocket
// and browser only.
func (rt *Router) sendEventEmail(ctx context.Context, e Event) {
	subject, htmlBody, textBody, ok := rt.renderEmail(e)
	if !ok {
		return
	}

	var user models.User
	err := rt.Users.FindOne(ctx, bson.M{"_id": e.RecipientID}).Decode(&user)
	if err != nil {
		zap.S().Warnw("failed to load recipient for email", "userId", e.RecipientID, "error", err)
		return
	}
	if user.Details.Email == "" {
		zap.S().Debugw("recipient has no email, skipping", "userId", e.RecipientID)
		return
	}

	rt.Email.SendEmail(ctx, user.Details.Email, subject, htmlBody, textBody)
}

func (rt *Router) renderEmail(e Event) (subject, htmlBody, textBody string, ok bool) {
	messageID := uuid.New().String()

	switch e.Type {
	case EventNewRequest:
		title := payloadString(e.Payload, "title")
		county := payloadString(e.Payload, "county")
		subject = fmt.Sprintf("Cerere nouă în județul %s", county)
		htmlBody = templates.RenderNewRequestEmail(messageID, title, county, rt.BaseURL)
		textBody = fmt.Sprintf("Un client a publicat o cerere nouă în județul %s: %s", county, title)
		return subject, htmlBody, textBody, true
	case EventOfferStatusChanged:
		if payloadString(e.Payload, "status") != models.OfferStatusAccepted {
			return "", "", "", false
		}
		requestTitle := payloadString(e.Payload, "requestTitle")
		subject = fmt.Sprintf("Ofertă acceptată - %s", requestTitle)
		htmlBody = templates.RenderOfferAcceptedEmail(messageID, requestTitle, rt.BaseURL)
		textBody = fmt.Sprintf("Oferta ta pentru cererea %q a fost acceptată.", requestTitle)
		return subject, htmlBody, textBody, true
	case EventNewMessage:
		senderName := payloadString(e.Payload, "senderName")
		if senderName == "" {
			senderName = "un utilizator AutoServ"
		}
		subject = fmt.Sprintf("Mesaj nou de la %s", senderName)
		htmlBody = templates.RenderNewMessageEmail(messageID, senderName, rt.BaseURL)
		textBody = fmt.Sprintf("Ai primit un mesaj nou de la %s.", senderName)
		return subject, htmlBody, textBody, true
	case EventNewReview:
		rating := 0
		if v, isFloat := e.Payload["rating"].(float64); isFloat {
			rating = int(v)
		} else if v, isInt := e.Payload["rating"].(int); isInt {
			rating = v
		}
		subject = "Recenzie nouă pe profilul tău"
		htmlBody = templates.RenderNewReviewEmail(messageID, rating, rt.BaseURL)
		textBody = fmt.Sprintf("Un client ți-a lăsat o recenzie nouă: %d din 5 stele.", rating)
		return subject, htmlBody, textBody, true
	}
	return "", "", "", false
}
