package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/autoserv-ro/autoserv-api/databases"
	"github.com/autoserv-ro/autoserv-api/models"
)

const (
	identifyTimeout = 10 * time.Second
	sendBuffer      = 16
)

type connKey struct {
	userID string
	role   string
}

// Hub tracks every identified websocket connection, keyed by
// (userId, role). A user with several open tabs holds several
// concurrent connections under the same key.
type Hub struct {
	mu        sync.Mutex
	conns     map[connKey]map[*Conn]bool
	broker    *Broker
	jwtSecret []byte
	messages  databases.MessageDatabase
	router    *Router

	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewHub creates a hub. The router is attached afterwards with
// SetRouter because the router also needs the hub for pushes.
func NewHub(jwtSecret []byte, messages databases.MessageDatabase) *Hub {
	h := &Hub{
		conns:     make(map[connKey]map[*Conn]bool),
		broker:    NewBroker(),
		jwtSecret: jwtSecret,
		messages:  messages,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetRouter attaches the delivery router used for message uplinks.
func (h *Hub) SetRouter(r *Router) {
	h.router = r
}

// SetAllowedOrigin restricts browser upgrades to the given origin. Must
// be called before the hub starts serving. Empty leaves the check open.
func (h *Hub) SetAllowedOrigin(origin string) {
	h.allowedOrigin = origin
}

// checkOrigin accepts same-origin browsers and clients that send no
// Origin header at all, such as the service worker bridge.
func (h *Hub) checkOrigin(r *http.Request) bool {
	if h.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	got, err := url.Parse(origin)
	if err != nil {
		return false
	}
	want, err := url.Parse(h.allowedOrigin)
	if err != nil {
		return false
	}
	return strings.EqualFold(got.Host, want.Host)
}

// Broker returns the request/response broker shared by all connections.
func (h *Hub) Broker() *Broker {
	return h.broker
}

// Conn is one websocket connection. It is unidentified until the
// client completes its identify handshake.
type Conn struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan Envelope

	idMu        sync.Mutex
	userID      string
	role        string
	identifying bool

	sendMu     sync.Mutex
	sendClosed bool

	checkMu   sync.Mutex
	checkStop chan struct{}
}

// identity returns the (userId, role) pair, empty until the identify
// handshake completes.
func (c *Conn) identity() (string, string) {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	return c.userID, c.role
}

// trySend queues an envelope for the write pump without blocking.
// Returns false when the buffer is full or the connection is closed.
func (c *Conn) trySend(env Envelope) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once. Further trySend calls
// report the connection as gone instead of panicking.
func (c *Conn) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &Conn{
		hub:  h,
		ws:   ws,
		send: make(chan Envelope, sendBuffer),
	}

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Conn) {
	userID, role := c.identity()
	key := connKey{userID: userID, role: role}
	h.mu.Lock()
	c.sendMu.Lock()
	dead := c.sendClosed
	c.sendMu.Unlock()
	if dead {
		// the socket dropped while the identify round-trip was in
		// flight, nothing to track
		h.mu.Unlock()
		return
	}
	set, ok := h.conns[key]
	if !ok {
		set = make(map[*Conn]bool)
		h.conns[key] = set
	}
	set[c] = true
	h.mu.Unlock()
	zap.S().Infow("websocket connected", "userId", userID, "role", role)
}

func (h *Hub) unregister(c *Conn) {
	userID, role := c.identity()
	key := connKey{userID: userID, role: role}
	h.mu.Lock()
	if set, ok := h.conns[key]; ok && set[c] {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, key)
		}
	}
	c.closeSend()
	h.mu.Unlock()
}

// SendToUser pushes an envelope to every open connection of the given
// (userId, role) pair. Connections with a full send buffer are evicted
// rather than blocking the caller.
func (h *Hub) SendToUser(userID, role string, env Envelope) {
	key := connKey{userID: userID, role: role}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[key]
	for c := range set {
		if !c.trySend(env) {
			delete(set, c)
			c.closeSend()
			c.ws.Close()
			zap.S().Warnw("evicted slow websocket connection", "userId", userID, "role", role)
		}
	}
}

// ConnectionCount returns how many connections the (userId, role) pair
// currently holds.
func (h *Hub) ConnectionCount(userID, role string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[connKey{userID: userID, role: role}])
}

type inboundFrame struct {
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlationId"`
}

func (c *Conn) readPump() {
	defer func() {
		c.stopMessageCheck()
		c.hub.unregister(c)
		c.ws.Close()
		if userID, role := c.identity(); userID != "" {
			zap.S().Infow("websocket disconnected", "userId", userID, "role", role)
		}
	}()

	// the client must identify before anything else is accepted
	c.ws.SetReadDeadline(time.Now().Add(identifyTimeout))

	for {
		var frame inboundFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			return
		}

		userID, _ := c.identity()
		if userID == "" && frame.Type != TypeIdentify && frame.Type != TypeBrokerResponse {
			// broker responses must pass, the token round-trip for a
			// pending identify arrives as one
			zap.S().Warnw("message before identify, dropping connection", "type", frame.Type)
			return
		}

		switch frame.Type {
		case TypeIdentify:
			c.startIdentify(frame.Payload)
		case TypeNewMessage:
			c.handleNewMessage(frame.Payload)
		case TypeBrokerResponse:
			c.hub.broker.Resolve(frame.CorrelationID, frame.Payload)
		case TypeStartMessageCheck:
			c.handleStartMessageCheck(frame.Payload)
		case TypeStopMessageCheck:
			// idempotent: stopping a check that is not running is a no-op
			c.stopMessageCheck()
		case TypePageLoaded:
			zap.S().Debugw("page loaded", "userId", userID)
		default:
			zap.S().Debugw("unknown websocket message type", "type", frame.Type)
		}
	}
}

func (c *Conn) writePump() {
	for env := range c.send {
		if err := c.ws.WriteJSON(env); err != nil {
			zap.S().Debugw("websocket write failed", "error", err)
			c.ws.Close()
			// drain until unregister closes the channel
			for range c.send {
			}
			return
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
	c.ws.Close()
}

type identifyPayload struct {
	Token string `json:"token"`
}

// startIdentify runs the identify handshake off the read loop. The
// GET_AUTH_TOKEN round-trip over the broker blocks until the read loop
// delivers the BROKER_RESPONSE, so it cannot run on the read loop
// itself. Duplicate identify frames are ignored.
func (c *Conn) startIdentify(raw json.RawMessage) {
	c.idMu.Lock()
	if c.userID != "" || c.identifying {
		c.idMu.Unlock()
		return
	}
	c.identifying = true
	c.idMu.Unlock()

	go func() {
		err := c.handleIdentify(raw)

		c.idMu.Lock()
		c.identifying = false
		c.idMu.Unlock()

		if err != nil {
			zap.S().Warnw("websocket identify failed", "error", err)
			c.ws.Close()
			return
		}
		c.ws.SetReadDeadline(time.Time{})
	}()
}

// handleIdentify associates the connection with a (userId, role) pair.
// When the identify frame carries no token, the server asks the page
// for one over the broker, mirroring the service worker's
// GET_AUTH_TOKEN reverse call.
func (c *Conn) handleIdentify(raw json.RawMessage) error {
	var p identifyPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("bad identify payload: %w", err)
		}
	}

	token := p.Token
	if token == "" {
		ctx, cancel := context.WithTimeout(context.Background(), brokerTimeout)
		defer cancel()
		resp, err := c.hub.broker.Request(ctx, c, TypeGetAuthToken, nil)
		if err != nil {
			return fmt.Errorf("auth token request failed: %w", err)
		}
		var tp identifyPayload
		if err := json.Unmarshal(resp, &tp); err != nil {
			return fmt.Errorf("bad auth token response: %w", err)
		}
		token = tp.Token
	}

	userID, role, err := c.hub.parseToken(token)
	if err != nil {
		return err
	}

	c.idMu.Lock()
	c.userID = userID
	c.role = role
	c.idMu.Unlock()
	c.hub.register(c)
	return nil
}

func (h *Hub) parseToken(tokenString string) (string, string, error) {
	if tokenString == "" {
		return "", "", fmt.Errorf("empty token")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	userID, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || (role != models.RoleClient && role != models.RoleService) {
		return "", "", fmt.Errorf("token missing sub or role")
	}
	return userID, role, nil
}

type newMessagePayload struct {
	RecipientID string `json:"recipientId"`
	RequestID   string `json:"requestId"`
	Content     string `json:"content"`
}

// handleNewMessage persists a chat message sent over the socket and
// routes the NEW_MESSAGE event to the recipient.
func (c *Conn) handleNewMessage(raw json.RawMessage) {
	userID, role := c.identity()

	var p newMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		zap.S().Warnw("bad new_message payload", "error", err)
		return
	}
	if p.RecipientID == "" || p.RequestID == "" || p.Content == "" {
		zap.S().Warnw("new_message missing fields", "senderId", userID)
		return
	}

	msg := models.Message{
		RequestID:   p.RequestID,
		SenderID:    userID,
		SenderRole:  role,
		RecipientID: p.RecipientID,
		Content:     p.Content,
		Read:        false,
		CreatedAt:   primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := c.hub.messages.InsertOne(context.Background(), msg); err != nil {
		zap.S().Errorw("failed to persist websocket message", "error", err, "senderId", userID)
		return
	}

	if c.hub.router != nil {
		go c.hub.router.Route(context.Background(), Event{
			Type: EventNewMessage,
			Payload: map[string]interface{}{
				"requestId":  p.RequestID,
				"senderId":   userID,
				"senderRole": role,
				"content":    p.Content,
			},
			RecipientID:   p.RecipientID,
			RecipientRole: oppositeRole(role),
		})
	}
}

func oppositeRole(role string) string {
	if role == models.RoleClient {
		return models.RoleService
	}
	return models.RoleClient
}
