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
	"go.uber.org/zap"

	"github.com/autoserv-ro/autoserv-api/api/notifications"
	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// Offer exported for testing purposes
type Offer struct {
	DB       databases.OfferDatabase
	RDB      databases.RequestDatabase
	Notifier *notifications.Router
}

// CreateOfferHandler creates an offer on a request and notifies the
// request's client
func (o Offer) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	err := json.NewDecoder(r.Body).Decode(&offer)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if offer.RequestID == "" || offer.ServiceID == "" {
		config.ErrorStatus("requestId and serviceId are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	rID, err := primitive.ObjectIDFromHex(offer.RequestID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	request, err := o.RDB.FindOne(context.Background(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get request by ID", http.StatusNotFound, w, err)
		return
	}
	if request.Status != models.RequestStatusActive {
		config.ErrorStatus("cannot offer on a closed request", http.StatusConflict, w, fmt.Errorf("request status: %q", request.Status))
		return
	}

	offer.ID = primitive.NewObjectID()
	offer.ClientID = request.ClientID
	offer.Status = models.OfferStatusPending
	now := time.Now().UTC()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	_, err = o.DB.InsertOne(context.Background(), offer)
	if err != nil {
		config.ErrorStatus("failed to insert offer", http.StatusInternalServerError, w, err)
		return
	}

	go o.Notifier.Route(context.Background(), notifications.Event{
		Type: notifications.EventNewOffer,
		Payload: map[string]interface{}{
			"offerId":      offer.ID.Hex(),
			"requestId":    offer.RequestID,
			"requestTitle": request.Title,
			"price":        offer.Price,
		},
		RecipientID:   request.ClientID,
		RecipientRole: models.RoleClient,
	})

	b, err := json.Marshal(offer)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// OffersByRequestIDHandler returns all offers made on a request
func (o Offer) OffersByRequestIDHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	dbResp, err := o.DB.Find(context.TODO(), bson.M{"requestId": requestID},
		&options.FindOptions{Sort: bson.M{"createdAt": -1}})
	if err != nil {
		config.ErrorStatus("failed to get offers by request ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Offer{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// OffersByServiceIDHandler returns all offers made by a provider
func (o Offer) OffersByServiceIDHandler(w http.ResponseWriter, r *http.Request) {
	serviceID := mux.Vars(r)["service_id"]

	dbResp, err := o.DB.Find(context.TODO(), bson.M{"serviceId": serviceID},
		&options.FindOptions{Sort: bson.M{"createdAt": -1}})
	if err != nil {
		config.ErrorStatus("failed to get offers by service ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Offer{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateOfferStatusHandler transitions an offer's status and notifies
// the provider. Accepting an offer rejects every other pending offer on
// the same request.
func (o Offer) UpdateOfferStatusHandler(w http.ResponseWriter, r *http.Request) {
	offerID := mux.Vars(r)["offer_id"]

	oID, err := primitive.ObjectIDFromHex(offerID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Status != models.OfferStatusAccepted &&
		body.Status != models.OfferStatusRejected &&
		body.Status != models.OfferStatusCancelled {
		config.ErrorStatus("invalid offer status", http.StatusBadRequest, w, fmt.Errorf("status: %q", body.Status))
		return
	}

	offer, err := o.DB.FindOne(context.Background(), bson.M{"_id": oID})
	if err != nil {
		config.ErrorStatus("failed to get offer by ID", http.StatusNotFound, w, err)
		return
	}
	if offer.Status != models.OfferStatusPending {
		config.ErrorStatus("offer is no longer pending", http.StatusConflict, w, fmt.Errorf("offer status: %q", offer.Status))
		return
	}

	now := time.Now().UTC()
	_, err = o.DB.UpdateOne(context.Background(),
		bson.M{"_id": oID},
		bson.M{"$set": bson.M{"status": body.Status, "updatedAt": now}})
	if err != nil {
		config.ErrorStatus("failed to update offer status", http.StatusInternalServerError, w, err)
		return
	}
	offer.Status = body.Status
	offer.UpdatedAt = now

	requestTitle := ""
	if rID, idErr := primitive.ObjectIDFromHex(offer.RequestID); idErr == nil {
		if request, reqErr := o.RDB.FindOne(context.Background(), bson.M{"_id": rID}); reqErr == nil {
			requestTitle = request.Title
		}
	}

	if body.Status == models.OfferStatusAccepted {
		// losing offers are rejected in bulk, their providers are not
		// notified individually
		_, err = o.DB.UpdateMany(context.Background(),
			bson.M{
				"requestId": offer.RequestID,
				"status":    models.OfferStatusPending,
				"_id":       bson.M{"$ne": oID},
			},
			bson.M{"$set": bson.M{"status": models.OfferStatusRejected, "updatedAt": now}})
		if err != nil {
			zap.S().Errorw("failed to reject competing offers", "requestId", offer.RequestID, "error", err)
		}
	}

	go o.Notifier.Route(context.Background(), notifications.Event{
		Type: notifications.EventOfferStatusChanged,
		Payload: map[string]interface{}{
			"offerId":      offer.ID.Hex(),
			"requestId":    offer.RequestID,
			"requestTitle": requestTitle,
			"status":       offer.Status,
		},
		RecipientID:   offer.ServiceID,
		RecipientRole: models.RoleService,
	})

	b, err := json.Marshal(offer)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
