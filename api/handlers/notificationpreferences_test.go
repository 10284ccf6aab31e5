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
	"github.com/autoserv-ro/autoserv-api/models"
)

func TestNotificationPreferences_GetClientPreferencesHandlerMissingUserID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/client/notification-preferences", nil)
	if err != nil {
		t.Fatal(err)
	}

	np := handlers.NotificationPreferences{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.GetClientPreferencesHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "user_id query param is required, missing user_id"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestNotificationPreferences_GetClientPreferencesHandlerDefaults(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/client/notification-preferences?user_id=client-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	// nothing ever saved: the defaults come back, unpersisted
	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "notificationpreferences").Return(conn)

	np := handlers.NotificationPreferences{
		DB: databases.NewNotificationPreferencesDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.GetClientPreferencesHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"userId":"client-1"`)
	assert.Contains(t, rr.Body.String(), `"emailEnabled":true`)
	assert.Contains(t, rr.Body.String(), `"browserEnabled":true`)
	assert.Contains(t, rr.Body.String(), `"browserPermission":false`)
}

func TestNotificationPreferences_GetServicePreferencesHandlerStored(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/service/notification-preferences?user_id=service-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.NotificationPreferences)
		*arg = models.DefaultNotificationPreferences("service-1", models.RoleService)
		arg.EmailEnabled = false
	}).Return(nil)
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "notificationpreferences").Return(conn)

	np := handlers.NotificationPreferences{
		DB: databases.NewNotificationPreferencesDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.GetServicePreferencesHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"userRole":"service"`)
	assert.Contains(t, rr.Body.String(), `"emailEnabled":false`)
}

func TestNotificationPreferences_SaveClientPreferencesHandlerMissingUserID(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/client/notification-preferences", strings.NewReader(`{"emailEnabled":false}`))
	if err != nil {
		t.Fatal(err)
	}

	np := handlers.NotificationPreferences{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.SaveClientPreferencesHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "userId is required, missing userId"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestNotificationPreferences_SaveClientPreferencesHandlerUpserts(t *testing.T) {
	body := `{"userId":"client-1","emailEnabled":false,"browserEnabled":true,"emailEvents":{"NEW_OFFER":false}}`
	req, err := http.NewRequest("POST", "/api/v1/client/notification-preferences", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "notificationpreferences").Return(conn)

	np := handlers.NotificationPreferences{
		DB: databases.NewNotificationPreferencesDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.SaveClientPreferencesHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// the role comes from the route, never from the body
	assert.Contains(t, rr.Body.String(), `"userRole":"client"`)
	assert.Contains(t, rr.Body.String(), `"emailEnabled":false`)
	conn.(*mocks.CollectionHelper).AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationPreferences_SyncBrowserPermissionHandlerInvalidRole(t *testing.T) {
	body := `{"userId":"client-1","userRole":"admin","permission":true}`
	req, err := http.NewRequest("PUT", "/api/v1/notification-preferences/permission", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	np := handlers.NotificationPreferences{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.SyncBrowserPermissionHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "userId and a valid userRole are required, missing or invalid fields"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestNotificationPreferences_SyncBrowserPermissionHandlerSuccess(t *testing.T) {
	body := `{"userId":"client-1","userRole":"client","permission":true}`
	req, err := http.NewRequest("PUT", "/api/v1/notification-preferences/permission", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "notificationpreferences").Return(conn)

	np := handlers.NotificationPreferences{
		DB: databases.NewNotificationPreferencesDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(np.SyncBrowserPermissionHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"browserPermission":true}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}
