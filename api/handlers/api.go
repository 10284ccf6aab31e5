package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/autoserv-ro/autoserv-api/api"
	"github.com/autoserv-ro/autoserv-api/api/notifications"
	"github.com/autoserv-ro/autoserv-api/api/scheduler"
	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	DB        databases.CollectionHelper
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	hub       *notifications.Hub
	notifier  *notifications.Router
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	u := User{DB: databases.NewUserDatabase(a.dbHelper), BaseURL: a.Config.BaseURL}
	req := Request{DB: databases.NewRequestDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper), ODB: databases.NewOfferDatabase(a.dbHelper), Notifier: a.notifier}
	off := Offer{DB: databases.NewOfferDatabase(a.dbHelper), RDB: databases.NewRequestDatabase(a.dbHelper), Notifier: a.notifier}
	msg := Message{DB: databases.NewMessageDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper), Notifier: a.notifier}
	rev := Review{DB: databases.NewReviewDatabase(a.dbHelper), Notifier: a.notifier}
	prefs := NotificationPreferences{DB: databases.NewNotificationPreferencesDatabase(a.dbHelper)}
	tokens := PushToken{DB: databases.NewPushTokenDatabase(a.dbHelper)}
	notif := Notification{Hub: a.hub, Notifier: a.notifier, UDB: databases.NewUserDatabase(a.dbHelper)}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// websocket upgrade carries its own token handshake, middleware
	// would eat the upgrade
	r.HandleFunc("/ws/notifications", notif.ServeWS)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	// websocket upgrades live outside this subrouter, a deadline here
	// would tear down held connections
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/request", api.Middleware(http.HandlerFunc(req.CreateRequestHandler))).Methods("POST")
	apiCreate.Handle("/requests", api.Middleware(http.HandlerFunc(req.RequestHandler))).Methods("GET")
	apiCreate.Handle("/requests/county/{county}", api.Middleware(http.HandlerFunc(req.RequestsByCountyHandler))).Methods("GET")
	apiCreate.Handle("/requests/client/{client_id}", api.Middleware(http.HandlerFunc(req.RequestsByClientIDHandler))).Methods("GET")
	apiCreate.Handle("/request/{request_id}", api.Middleware(http.HandlerFunc(req.RequestByIDHandler))).Methods("GET")
	apiCreate.Handle("/request/{request_id}", api.Middleware(http.HandlerFunc(req.UpdateRequestHandler))).Methods("PUT")
	apiCreate.Handle("/request/{request_id}/status", api.Middleware(http.HandlerFunc(req.UpdateRequestStatusHandler))).Methods("PATCH")

	apiCreate.Handle("/offer", api.Middleware(http.HandlerFunc(off.CreateOfferHandler))).Methods("POST")
	apiCreate.Handle("/offers/request/{request_id}", api.Middleware(http.HandlerFunc(off.OffersByRequestIDHandler))).Methods("GET")
	apiCreate.Handle("/offers/service/{service_id}", api.Middleware(http.HandlerFunc(off.OffersByServiceIDHandler))).Methods("GET")
	apiCreate.Handle("/offer/{offer_id}/status", api.Middleware(http.HandlerFunc(off.UpdateOfferStatusHandler))).Methods("PUT")

	apiCreate.Handle("/message", api.Middleware(http.HandlerFunc(msg.CreateMessageHandler))).Methods("POST")
	apiCreate.Handle("/messages/request/{request_id}", api.Middleware(http.HandlerFunc(msg.MessagesByRequestIDHandler))).Methods("GET")
	apiCreate.Handle("/messages/unread-count", api.Middleware(http.HandlerFunc(msg.UnreadCountHandler))).Methods("GET")
	apiCreate.Handle("/messages/mark-read", api.Middleware(http.HandlerFunc(msg.MarkReadHandler))).Methods("PUT")
	apiCreate.Handle("/conversations", api.Middleware(http.HandlerFunc(msg.ConversationsHandler))).Methods("GET")

	apiCreate.Handle("/review", api.Middleware(http.HandlerFunc(rev.CreateReviewHandler))).Methods("POST")
	apiCreate.Handle("/reviews/service/{service_id}", api.Middleware(http.HandlerFunc(rev.ReviewsByServiceIDHandler))).Methods("GET")

	apiCreate.Handle("/client/notification-preferences", api.Middleware(http.HandlerFunc(prefs.GetClientPreferencesHandler))).Methods("GET")
	apiCreate.Handle("/client/notification-preferences", api.Middleware(http.HandlerFunc(prefs.SaveClientPreferencesHandler))).Methods("POST")
	apiCreate.Handle("/service/notification-preferences", api.Middleware(http.HandlerFunc(prefs.GetServicePreferencesHandler))).Methods("GET")
	apiCreate.Handle("/service/notification-preferences", api.Middleware(http.HandlerFunc(prefs.SaveServicePreferencesHandler))).Methods("POST")
	apiCreate.Handle("/notification-preferences/permission", api.Middleware(http.HandlerFunc(prefs.SyncBrowserPermissionHandler))).Methods("PUT")

	apiCreate.Handle("/fcm/register-token", api.Middleware(http.HandlerFunc(tokens.RegisterTokenHandler))).Methods("POST")
	apiCreate.Handle("/fcm/unregister-token", api.Middleware(http.HandlerFunc(tokens.UnregisterTokenHandler))).Methods("POST")

	apiCreate.Handle("/notifications/send", api.Middleware(http.HandlerFunc(notif.SendNotificationHandler))).Methods("POST")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/service/create-checkout-session", api.Middleware(http.HandlerFunc(u.CreateCheckoutSessionHandler))).Methods("POST")
	apiCreate.Handle("/success", http.HandlerFunc(u.handleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/cancel", http.HandlerFunc(u.handleCancelRedirect)).Methods("GET")

	apiMetrics := r.PathPrefix("/api/v2").Subrouter()
	apiMetrics.Handle("/metrics", api.Middleware(http.HandlerFunc(metricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("autoserv-api has connected to the database")

	// stripe powers the optional provider subscription checkout; the
	// notification paths work without it
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		zap.S().Warn("stripe secret key is not set, checkout disabled")
	}
	stripe.Key = stripeKey

	messageDB := databases.NewMessageDatabase(a.dbHelper)
	a.hub = notifications.NewHub([]byte(a.Config.JWTSecret), messageDB)
	a.hub.SetAllowedOrigin(a.Config.BaseURL)

	dispatcher := notifications.NewDispatcher(a.emailProvider())
	a.notifier = notifications.NewRouter(
		databases.NewNotificationPreferencesDatabase(a.dbHelper),
		databases.NewPushTokenDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		a.hub,
		dispatcher,
		a.Config.BaseURL,
	)

	a.scheduler = scheduler.NewScheduler(
		databases.NewPushTokenDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

// emailProvider picks the configured provider: Elastic Email first,
// SendGrid as fallback, nil when neither key is set. A nil provider
// turns email dispatch into a logged no-op.
func (a *App) emailProvider() notifications.EmailProvider {
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "notificari@autoserv.ro"
	}
	fromName := os.Getenv("EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "AutoServ"
	}

	if a.Config.ElasticEmailKey != "" {
		return notifications.NewElasticEmailProvider(a.Config.ElasticEmailKey, from, fromName)
	}
	if a.Config.SendgridKey != "" {
		zap.S().Info("elastic email key not set, falling back to sendgrid")
		return notifications.NewSendgridProvider(a.Config.SendgridKey, from, fromName)
	}
	zap.S().Warn("no email api key set, email notifications disabled")
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(api.GetMetrics().GetSummary())
	if err != nil {
		config.ErrorStatus("failed to marshal metrics", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
