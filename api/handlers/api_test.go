package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/autoserv-ro/autoserv-api/api/handlers"
	"github.com/autoserv-ro/autoserv-api/api/notifications"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/databases/mocks"
)

var errNoPrefs = errors.New("mocked-error")

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

// newTestNotifier builds a notifications router over mocked collections
// for handlers that fan events out after a commit. Preference lookups
// report no document so the defaults apply, and the user lookup fails
// so no email leaves the router.
func newTestNotifier() *notifications.Router {
	prefsConn := &mocks.CollectionHelper{}
	prefsResult := &mocks.SingleResultHelper{}
	prefsResult.On("Decode", mock.Anything).Return(errNoPrefs)
	prefsConn.On("FindOne", mock.Anything, mock.Anything).Return(prefsResult)

	usersConn := &mocks.CollectionHelper{}
	userResult := &mocks.SingleResultHelper{}
	userResult.On("Decode", mock.Anything).Return(errNoPrefs)
	usersConn.On("FindOne", mock.Anything, mock.Anything).Return(userResult)

	tokensConn := &mocks.CollectionHelper{}
	tokensCursor := &mocks.CursorHelper{}
	tokensCursor.On("Decode", mock.Anything).Return(nil)
	tokensConn.On("Find", mock.Anything, mock.Anything).Return(tokensCursor)

	db := &MockDatabaseHelper{}
	db.On("Collection", "notificationpreferences").Return(prefsConn)
	db.On("Collection", "users").Return(usersConn)
	db.On("Collection", "pushtokens").Return(tokensConn)

	hub := notifications.NewHub([]byte("test-secret"), nil)
	return notifications.NewRouter(
		databases.NewNotificationPreferencesDatabase(db),
		databases.NewPushTokenDatabase(db),
		databases.NewUserDatabase(db),
		hub,
		notifications.NewDispatcher(nil),
		"https://autoserv.ro",
	)
}

func TestHealthCheckHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	// the health endpoint has no database dependency, the bare router
	// serves it without Initialize
	a := handlers.App{}
	router := a.New()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"alive":true}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}
