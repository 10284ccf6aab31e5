package notifications

// Server-to-client websocket event types. These mirror the envelope
// types the frontend switches on.
const (
	EventNewRequest           = "NEW_REQUEST"
	EventNewOffer             = "NEW_OFFER"
	EventOfferStatusChanged   = "OFFER_STATUS_CHANGED"
	EventRequestStatusChanged = "REQUEST_STATUS_CHANGED"
	EventNewMessage           = "NEW_MESSAGE"
	EventNewReview            = "NEW_REVIEW"
)

// Client-to-server and bridge message types.
const (
	TypeIdentify          = "identify"
	TypeNewMessage        = "new_message"
	TypeBrokerRequest     = "BROKER_REQUEST"
	TypeBrokerResponse    = "BROKER_RESPONSE"
	TypeShowNotification  = "SHOW_NOTIFICATION"
	TypeGetAuthToken      = "GET_AUTH_TOKEN"
	TypeStartMessageCheck = "START_BACKGROUND_MESSAGE_CHECK"
	TypeStopMessageCheck  = "STOP_BACKGROUND_MESSAGE_CHECK"
	TypePageLoaded        = "PAGE_LOADED"
	TypeMessageCheck      = "MESSAGE_CHECK"
)

// Envelope is the JSON frame exchanged over the websocket in both
// directions. CorrelationID is only set on broker request/response
// round-trips.
type Envelope struct {
	Type          string      `json:"type"`
	Payload       interface{} `json:"payload,omitempty"`
	CorrelationID string      `json:"correlationId,omitempty"`
}

// Event is the ephemeral domain event constructed after a mutation
// commits. It is routed and discarded, never stored.
type Event struct {
	Type          string
	Payload       map[string]interface{}
	RecipientID   string
	RecipientRole string
}

// payloadString pulls a string field out of an event payload, tolerating
// missing keys and non-string values.
func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// notificationTitle maps an event to the browser notification title the
// frontend displays.
func notificationTitle(e Event) string {
	switch e.Type {
	case EventNewRequest:
		return "Cerere nouă"
	case EventNewOffer:
		return "Ofertă nouă"
	case EventOfferStatusChanged:
		if payloadString(e.Payload, "status") == "accepted" {
			return "Ofertă acceptată"
		}
		return "Stare ofertă actualizată"
	case EventRequestStatusChanged:
		return "Stare cerere actualizată"
	case EventNewMessage:
		return "Mesaj nou"
	case EventNewReview:
		return "Recenzie nouă"
	}
	return "Notificare"
}
