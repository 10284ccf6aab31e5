package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerRequestResolve(t *testing.T) {
	b := NewBroker()
	c := &Conn{send: make(chan Envelope, 1)}

	done := make(chan struct{})
	var resp json.RawMessage
	var reqErr error
	go func() {
		defer close(done)
		resp, reqErr = b.Request(context.Background(), c, TypeGetAuthToken, nil)
	}()

	// the request frame lands on the connection's send channel
	var env Envelope
	select {
	case env = <-c.send:
	case <-time.After(time.Second):
		t.Fatal("no broker request written to connection")
	}
	require.Equal(t, TypeBrokerRequest, env.Type)
	require.NotEmpty(t, env.CorrelationID)
	payload, ok := env.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, TypeGetAuthToken, payload["requestType"])

	b.Resolve(env.CorrelationID, json.RawMessage(`{"token":"abc"}`))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("request did not resolve")
	}
	require.NoError(t, reqErr)
	assert.JSONEq(t, `{"token":"abc"}`, string(resp))
	assert.Equal(t, 0, b.PendingCount())
}

func TestBrokerRequestContextCancelled(t *testing.T) {
	b := NewBroker()
	c := &Conn{send: make(chan Envelope, 1)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Request(ctx, c, TypeGetAuthToken, nil)
	require.Error(t, err)
	assert.Equal(t, 0, b.PendingCount())
}

func TestBrokerRequestSendBufferFull(t *testing.T) {
	b := NewBroker()
	c := &Conn{send: make(chan Envelope)} // unbuffered, nobody reading

	_, err := b.Request(context.Background(), c, TypeGetAuthToken, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send buffer full")
	assert.Equal(t, 0, b.PendingCount())
}

func TestBrokerResolveUnknownCorrelationID(t *testing.T) {
	b := NewBroker()

	// unknown and empty ids are dropped without blocking or panicking
	b.Resolve("no-such-id", json.RawMessage(`{}`))
	b.Resolve("", json.RawMessage(`{}`))
	assert.Equal(t, 0, b.PendingCount())
}

func TestBrokerLateResolveAfterCancel(t *testing.T) {
	b := NewBroker()
	c := &Conn{send: make(chan Envelope, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Request(ctx, c, TypeGetAuthToken, nil)
	}()

	env := <-c.send
	cancel()
	<-done

	// the pending entry is gone, a late response is just dropped
	b.Resolve(env.CorrelationID, json.RawMessage(`{}`))
	assert.Equal(t, 0, b.PendingCount())
}
