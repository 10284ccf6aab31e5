package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// brokerTimeout guards against an unresponsive endpoint on the other
// side of the socket.
const brokerTimeout = 5 * time.Second

// Broker implements request/response round-trips over the websocket:
// the server writes a BROKER_REQUEST frame carrying a correlation id
// and waits for the matching BROKER_RESPONSE. This is how the server
// asks the page for state it cannot see itself, such as the cached
// auth token.
type Broker struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		pending: make(map[string]chan json.RawMessage),
	}
}

// Request sends reqType with payload to the connection and blocks until
// the response arrives, the context is done, or the broker timeout
// elapses, whichever comes first.
func (b *Broker) Request(ctx context.Context, c *Conn, reqType string, payload interface{}) (json.RawMessage, error) {
	id := uuid.New().String()
	ch := make(chan json.RawMessage, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	env := Envelope{Type: TypeBrokerRequest, CorrelationID: id, Payload: map[string]interface{}{
		"requestType": reqType,
		"data":        payload,
	}}
	if !c.trySend(env) {
		return nil, fmt.Errorf("connection send buffer full")
	}

	timer := time.NewTimer(brokerTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("broker request %s timed out", reqType)
	}
}

// Resolve delivers a response to the waiting Request call. Unknown or
// late correlation ids are logged and dropped.
func (b *Broker) Resolve(correlationID string, payload json.RawMessage) {
	if correlationID == "" {
		return
	}
	b.mu.Lock()
	ch, ok := b.pending[correlationID]
	if ok {
		delete(b.pending, correlationID)
	}
	b.mu.Unlock()

	if !ok {
		zap.S().Debugw("broker response for unknown correlation id", "correlationId", correlationID)
		return
	}
	ch <- payload
}

// PendingCount reports how many requests are awaiting a response.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
