package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/autoserv-ro/autoserv-api/config"
	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

// User exported for testing purposes
type User struct {
	DB      databases.UserDatabase
	BaseURL string
}

// UserHandler returns a user given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	var user models.User
	err := u.DB.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	// never leak the password hash
	user.Details.Password = ""

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UserCreateHandler creates a client or service provider account
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var details models.UserDetails
	err := json.NewDecoder(r.Body).Decode(&details)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if details.Email == "" || details.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing email or password"))
		return
	}
	if details.Role != models.RoleClient && details.Role != models.RoleService {
		config.ErrorStatus("role must be client or service", http.StatusBadRequest, w, fmt.Errorf("invalid role: %q", details.Role))
		return
	}

	count, err := u.DB.CountDocuments(context.Background(), bson.M{"user.email": details.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing email", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hashed)
	now := time.Now().UTC()
	details.CreatedAt = now
	details.UpdatedAt = now

	user := models.User{
		ID:      uuid.New().String(),
		Details: details,
	}
	_, err = u.DB.InsertOne(context.Background(), user)
	if err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	user.Details.Password = ""
	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UserCheckEmailHandler reports whether an email is already registered
func (u User) UserCheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	count, err := u.DB.CountDocuments(context.Background(), bson.M{"user.email": body.Email})
	if err != nil {
		config.ErrorStatus("failed to check email", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]bool{"exists": count > 0})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateCheckoutSessionHandler starts a stripe checkout session for a
// service provider subscription
func (u User) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  string `json:"userId"`
		PriceID string `json:"priceId"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	var user models.User
	err = u.DB.FindOne(context.Background(), bson.M{"_id": body.UserID}).Decode(&user)
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	if user.Details.Role != models.RoleService {
		config.ErrorStatus("only service providers can subscribe", http.StatusForbidden, w, fmt.Errorf("role: %q", user.Details.Role))
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(body.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(user.Details.Email),
		ClientReferenceID: stripe.String(user.ID),
		SuccessURL:        stripe.String(u.BaseURL + "/api/v1/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(u.BaseURL + "/api/v1/cancel"),
	}

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]string{"url": s.URL, "sessionId": s.ID})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (u User) handleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	zap.S().Infow("checkout completed", "sessionId", r.URL.Query().Get("session_id"))
	http.Redirect(w, r, u.BaseURL+"/abonament/succes", http.StatusSeeOther)
}

func (u User) handleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, u.BaseURL+"/abonament/anulat", http.StatusSeeOther)
}
