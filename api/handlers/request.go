package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
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

var (
	// Page denotes the starting Page for pagination results
	Page = 0
)

// Request exported for testing purposes
type Request struct {
	DB       databases.RequestDatabase
	UDB      databases.UserDatabase
	ODB      databases.OfferDatabase
	Notifier *notifications.Router
}

// CreateRequestHandler creates a service request and notifies every
// provider in the request's county
func (rq Request) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	var request models.Request
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if request.ClientID == "" || request.Title == "" || request.County == "" {
		config.ErrorStatus("clientId, title and county are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	request.ID = primitive.NewObjectID()
	request.Status = models.RequestStatusActive
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	_, err = rq.DB.InsertOne(context.Background(), request)
	if err != nil {
		config.ErrorStatus("failed to insert request", http.StatusInternalServerError, w, err)
		return
	}

	// fan out after the commit, never blocking the response
	go rq.notifyCountyProviders(request)

	b, err := json.Marshal(request)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// notifyCountyProviders routes a NEW_REQUEST event to every service
// provider registered in the request's county
func (rq Request) notifyCountyProviders(request models.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	providers, err := rq.UDB.Find(ctx, bson.M{
		"user.role":   models.RoleService,
		"user.county": request.County,
	})
	if err != nil {
		zap.S().Errorw("failed to load county providers", "county", request.County, "error", err)
		return
	}

	for _, provider := range providers {
		rq.Notifier.Route(ctx, notifications.Event{
			Type: notifications.EventNewRequest,
			Payload: map[string]interface{}{
				"requestId": request.ID.Hex(),
				"title":     request.Title,
				"county":    request.County,
			},
			RecipientID:   provider.ID,
			RecipientRole: models.RoleService,
		})
	}
}

// RequestHandler returns all requests, paginated
func (rq Request) RequestHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	Page = getPage(Page, r)

	dbResp, err := rq.DB.FindPaginated(context.TODO(), bson.M{}, Limit, Page)
	if err != nil {
		config.ErrorStatus("failed to get requests", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Request{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RequestByIDHandler returns a request by ID
func (rq Request) RequestByIDHandler(w http.ResponseWriter, r *http.Request) {
	reqID := mux.Vars(r)["request_id"]

	zap.S().Debugf("request_id: %v", reqID)

	rID, err := primitive.ObjectIDFromHex(reqID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := rq.DB.FindOne(context.Background(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get request by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RequestsByCountyHandler returns the active requests in a county
func (rq Request) RequestsByCountyHandler(w http.ResponseWriter, r *http.Request) {
	county := mux.Vars(r)["county"]

	dbResp, err := rq.DB.Find(context.TODO(), bson.M{
		"county": county,
		"status": models.RequestStatusActive,
	}, &options.FindOptions{Sort: bson.M{"createdAt": -1}})
	if err != nil {
		config.ErrorStatus("failed to get requests by county", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Request{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RequestsByClientIDHandler returns all requests posted by a client
func (rq Request) RequestsByClientIDHandler(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["client_id"]

	dbResp, err := rq.DB.Find(context.TODO(), bson.M{"clientId": clientID},
		&options.FindOptions{Sort: bson.M{"createdAt": -1}})
	if err != nil {
		config.ErrorStatus("failed to get requests by client ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Request{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateRequestHandler updates the editable fields of a request
func (rq Request) UpdateRequestHandler(w http.ResponseWriter, r *http.Request) {
	reqID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(reqID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Cities         []string `json:"cities"`
		PreferredDates []string `json:"preferredDates"`
		PhotoURLs      []string `json:"photoUrls"`
	}
	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"title":          body.Title,
		"description":    body.Description,
		"cities":         body.Cities,
		"preferredDates": body.PreferredDates,
		"photoUrls":      body.PhotoURLs,
		"updatedAt":      time.Now().UTC(),
	}}
	_, err = rq.DB.UpdateOne(context.Background(), bson.M{"_id": rID}, update)
	if err != nil {
		config.ErrorStatus("failed to update request", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := rq.DB.FindOne(context.Background(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get request by ID", http.StatusNotFound, w, err)
		return
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateRequestStatusHandler transitions a request's status and
// notifies every provider that made an offer on it
func (rq Request) UpdateRequestStatusHandler(w http.ResponseWriter, r *http.Request) {
	reqID := mux.Vars(r)["request_id"]

	rID, err := primitive.ObjectIDFromHex(reqID)
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
	if body.Status != models.RequestStatusActive &&
		body.Status != models.RequestStatusResolved &&
		body.Status != models.RequestStatusCancelled {
		config.ErrorStatus("invalid request status", http.StatusBadRequest, w, fmt.Errorf("status: %q", body.Status))
		return
	}

	_, err = rq.DB.UpdateOne(context.Background(),
		bson.M{"_id": rID},
		bson.M{"$set": bson.M{"status": body.Status, "updatedAt": time.Now().UTC()}})
	if err != nil {
		config.ErrorStatus("failed to update request status", http.StatusInternalServerError, w, err)
		return
	}

	request, err := rq.DB.FindOne(context.Background(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get request by ID", http.StatusNotFound, w, err)
		return
	}

	go rq.notifyOfferingProviders(*request)

	b, err := json.Marshal(request)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// notifyOfferingProviders routes a REQUEST_STATUS_CHANGED event to the
// providers that offered on the request
func (rq Request) notifyOfferingProviders(request models.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	offers, err := rq.ODB.Find(ctx, bson.M{"requestId": request.ID.Hex()})
	if err != nil {
		zap.S().Errorw("failed to load offers for request", "requestId", request.ID.Hex(), "error", err)
		return
	}

	notified := map[string]bool{}
	for _, offer := range offers {
		if notified[offer.ServiceID] {
			continue
		}
		notified[offer.ServiceID] = true
		rq.Notifier.Route(ctx, notifications.Event{
			Type: notifications.EventRequestStatusChanged,
			Payload: map[string]interface{}{
				"requestId":    request.ID.Hex(),
				"requestTitle": request.Title,
				"status":       request.Status,
			},
			RecipientID:   offer.ServiceID,
			RecipientRole: models.RoleService,
		})
	}
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
