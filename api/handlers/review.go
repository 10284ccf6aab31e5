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

// Review exported for testing purposes
type Review struct {
	DB       databases.ReviewDatabase
	Notifier *notifications.Router
}

// CreateReviewHandler creates a review and notifies the reviewed
// provider
func (rv Review) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	var review models.Review
	err := json.NewDecoder(r.Body).Decode(&review)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if review.ServiceID == "" || review.ClientID == "" {
		config.ErrorStatus("serviceId and clientId are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		config.ErrorStatus("rating must be between 1 and 5", http.StatusBadRequest, w, fmt.Errorf("rating: %d", review.Rating))
		return
	}

	// one review per client per request
	count, err := rv.DB.CountDocuments(context.Background(), bson.M{
		"clientId":  review.ClientID,
		"requestId": review.RequestID,
	})
	if err != nil {
		config.ErrorStatus("failed to check existing review", http.StatusInternalServerError, w, err)
		return
	}
	if review.RequestID != "" && count > 0 {
		config.ErrorStatus("request already reviewed", http.StatusConflict, w, fmt.Errorf("duplicate review"))
		return
	}

	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now().UTC()

	_, err = rv.DB.InsertOne(context.Background(), review)
	if err != nil {
		config.ErrorStatus("failed to insert review", http.StatusInternalServerError, w, err)
		return
	}

	go rv.Notifier.Route(context.Background(), notifications.Event{
		Type: notifications.EventNewReview,
		Payload: map[string]interface{}{
			"reviewId":  review.ID.Hex(),
			"requestId": review.RequestID,
			"rating":    review.Rating,
		},
		RecipientID:   review.ServiceID,
		RecipientRole: models.RoleService,
	})

	b, err := json.Marshal(review)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ReviewsByServiceIDHandler returns all reviews on a provider's profile
func (rv Review) ReviewsByServiceIDHandler(w http.ResponseWriter, r *http.Request) {
	serviceID := mux.Vars(r)["service_id"]

	dbResp, err := rv.DB.Find(context.TODO(), bson.M{"serviceId": serviceID},
		&options.FindOptions{Sort: bson.M{"createdAt": -1}})
	if err != nil {
		config.ErrorStatus("failed to get reviews by service ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Review{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
