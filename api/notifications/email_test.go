package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherSendEmail(t *testing.T) {
	provider := &MockEmailProvider{}
	d := NewDispatcher(provider)

	ok := d.SendEmail(context.Background(), "client@example.ro", "Cerere nouă în județul Cluj", "<p>salut</p>", "salut")
	assert.True(t, ok)

	sent := provider.Sent()
	assert.Len(t, sent, 1)
	assert.Equal(t, "client@example.ro", sent[0].To)
	assert.Equal(t, "Cerere nouă în județul Cluj", sent[0].Subject)
}

func TestDispatcherInvalidAddress(t *testing.T) {
	provider := &MockEmailProvider{}
	d := NewDispatcher(provider)

	for _, addr := range []string{"", "not-an-email", "missing@domain", "@example.ro", "spaces in@example.ro"} {
		ok := d.SendEmail(context.Background(), addr, "subiect", "<p>x</p>", "x")
		assert.False(t, ok, "address %q should be rejected", addr)
	}
	// nothing ever reached the provider
	assert.Empty(t, provider.Sent())
}

func TestDispatcherMissingAPIKey(t *testing.T) {
	// nil provider is the missing-key degradation
	d := NewDispatcher(nil)

	ok := d.SendEmail(context.Background(), "client@example.ro", "subiect", "<p>x</p>", "x")
	assert.False(t, ok)
}

func TestDispatcherProviderError(t *testing.T) {
	provider := &MockEmailProvider{Err: errors.New("mocked-error")}
	d := NewDispatcher(provider)

	ok := d.SendEmail(context.Background(), "client@example.ro", "subiect", "<p>x</p>", "x")
	assert.False(t, ok)
}

func TestValidEmailAddress(t *testing.T) {
	assert.True(t, validEmailAddress("ana@example.ro"))
	assert.True(t, validEmailAddress("Ana Pop <ana.pop@service.auto.ro>"))
	assert.False(t, validEmailAddress("ana@localhost"))
	assert.False(t, validEmailAddress("ana"))
	assert.False(t, validEmailAddress(""))
}
