package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/autoserv-ro/autoserv-api/api/handlers"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/databases/mocks"
)

func TestPushToken_RegisterTokenHandlerMissingFields(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/fcm/register-token", strings.NewReader(`{"userRole":"client"}`))
	if err != nil {
		t.Fatal(err)
	}

	pt := handlers.PushToken{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(pt.RegisterTokenHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "userId and fcmToken are required, missing required fields"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestPushToken_RegisterTokenHandlerInvalidRole(t *testing.T) {
	body := `{"userId":"client-1","userRole":"admin","fcmToken":"tok-1"}`
	req, err := http.NewRequest("POST", "/api/v1/fcm/register-token", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	pt := handlers.PushToken{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(pt.RegisterTokenHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "userRole must be client or service")
}

func TestPushToken_RegisterTokenHandlerSuccess(t *testing.T) {
	body := `{"userId":"client-1","userRole":"client","fcmToken":"tok-1"}`
	req, err := http.NewRequest("POST", "/api/v1/fcm/register-token", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "pushtokens").Return(conn)

	pt := handlers.PushToken{
		DB: databases.NewPushTokenDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(pt.RegisterTokenHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"registered":true}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
	conn.(*mocks.CollectionHelper).AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPushToken_UnregisterTokenHandlerMissingToken(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/fcm/unregister-token", strings.NewReader(`{"userId":"client-1"}`))
	if err != nil {
		t.Fatal(err)
	}

	pt := handlers.PushToken{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(pt.UnregisterTokenHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "fcmToken is required, missing fcmToken"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestPushToken_UnregisterTokenHandlerIdempotent(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/fcm/unregister-token", strings.NewReader(`{"fcmToken":"tok-unknown"}`))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	// deleting a token that was never registered still succeeds
	conn.(*mocks.CollectionHelper).On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "pushtokens").Return(conn)

	pt := handlers.PushToken{
		DB: databases.NewPushTokenDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(pt.UnregisterTokenHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"unregistered":true}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}
