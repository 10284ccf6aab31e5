package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderNewRequestEmail(t *testing.T) {
	html := RenderNewRequestEmail("msg-123", "Schimb plăcuțe frână", "Cluj", "https://autoserv.ro")

	assert.Contains(t, html, "<!-- message-id: msg-123 -->")
	assert.Contains(t, html, "Schimb plăcuțe frână")
	assert.Contains(t, html, "Cluj")
	assert.Contains(t, html, "https://autoserv.ro")
}

func TestRenderOfferAcceptedEmail(t *testing.T) {
	html := RenderOfferAcceptedEmail("msg-456", "Revizie anuală", "https://autoserv.ro")

	assert.Contains(t, html, "<!-- message-id: msg-456 -->")
	assert.Contains(t, html, "Revizie anuală")
}

func TestRenderNewMessageEmail(t *testing.T) {
	html := RenderNewMessageEmail("msg-789", "Ana Pop", "https://autoserv.ro")

	assert.Contains(t, html, "<!-- message-id: msg-789 -->")
	assert.Contains(t, html, "Ana Pop")
}

func TestRenderNewReviewEmail(t *testing.T) {
	html := RenderNewReviewEmail("msg-000", 4, "https://autoserv.ro")

	assert.Contains(t, html, "<!-- message-id: msg-000 -->")
	assert.Contains(t, html, "4")
}

func TestDistinctMessageIDsKeepThreadsApart(t *testing.T) {
	a := RenderNewMessageEmail("id-a", "Ana Pop", "https://autoserv.ro")
	b := RenderNewMessageEmail("id-b", "Ana Pop", "https://autoserv.ro")

	assert.NotEqual(t, a, b)
	// only the embedded message-id differs
	assert.Equal(t,
		strings.Replace(a, "id-a", "X", 1),
		strings.Replace(b, "id-b", "X", 1),
	)
}
