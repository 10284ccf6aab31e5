package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/autoserv-ro/autoserv-api/api/handlers"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/databases/mocks"
	"github.com/autoserv-ro/autoserv-api/models"
)

func TestReview_CreateReviewHandlerMissingFields(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/reviews", strings.NewReader(`{"rating":5}`))
	if err != nil {
		t.Fatal(err)
	}

	rv := handlers.Review{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(rv.CreateReviewHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "serviceId and clientId are required, missing required fields"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestReview_CreateReviewHandlerRatingOutOfRange(t *testing.T) {
	body := `{"serviceId":"service-1","clientId":"client-1","rating":6}`
	req, err := http.NewRequest("POST", "/api/v1/reviews", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	rv := handlers.Review{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(rv.CreateReviewHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "rating must be between 1 and 5")
}

func TestReview_CreateReviewHandlerDuplicate(t *testing.T) {
	body := `{"serviceId":"service-1","clientId":"client-1","requestId":"r1","rating":4}`
	req, err := http.NewRequest("POST", "/api/v1/reviews", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.(*MockDatabaseHelper).On("Collection", "reviews").Return(conn)

	rv := handlers.Review{
		DB: databases.NewReviewDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(rv.CreateReviewHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusConflict)
	}

	expected := `{"response": "request already reviewed, duplicate review"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestReview_CreateReviewHandlerSuccess(t *testing.T) {
	body := `{"serviceId":"service-1","clientId":"client-1","requestId":"r1","rating":5,"comment":"Servicii impecabile"}`
	req, err := http.NewRequest("POST", "/api/v1/reviews", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	conn.(*mocks.CollectionHelper).On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)
	db.(*MockDatabaseHelper).On("Collection", "reviews").Return(conn)

	rv := handlers.Review{
		DB:       databases.NewReviewDatabase(db),
		Notifier: newTestNotifier(),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(rv.CreateReviewHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rating":5`)
	assert.Contains(t, rr.Body.String(), `"comment":"Servicii impecabile"`)
	conn.(*mocks.CollectionHelper).AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestReview_ReviewsByServiceIDHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/reviews/service/service-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"service_id": "service-1"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Review)
		*arg = []models.Review{
			{ServiceID: "service-1", ClientID: "client-1", Rating: 5, Comment: "Servicii impecabile"},
		}
	}).Return(nil)
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor)
	db.(*MockDatabaseHelper).On("Collection", "reviews").Return(conn)

	rv := handlers.Review{
		DB: databases.NewReviewDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(rv.ReviewsByServiceIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rating":5`)
	assert.Contains(t, rr.Body.String(), `"comment":"Servicii impecabile"`)
}
