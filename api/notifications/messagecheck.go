package notifications

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	defaultCheckInterval = 30 * time.Second
	minCheckInterval     = 5 * time.Second
)

type startCheckPayload struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

// handleStartMessageCheck starts the background unread-message poll for
// this connection. Starting while a check is already running restarts
// it with the new interval.
func (c *Conn) handleStartMessageCheck(raw json.RawMessage) {
	interval := defaultCheckInterval
	if len(raw) > 0 {
		var p startCheckPayload
		if err := json.Unmarshal(raw, &p); err == nil && p.IntervalSeconds > 0 {
			interval = time.Duration(p.IntervalSeconds) * time.Second
		}
	}
	if interval < minCheckInterval {
		interval = minCheckInterval
	}

	c.stopMessageCheck()

	stop := make(chan struct{})
	c.checkMu.Lock()
	c.checkStop = stop
	c.checkMu.Unlock()

	go c.runMessageCheck(interval, stop)
	userID, _ := c.identity()
	zap.S().Debugw("background message check started", "userId", userID, "interval", interval)
}

// stopMessageCheck halts the poll. Safe to call when no check is
// running.
func (c *Conn) stopMessageCheck() {
	c.checkMu.Lock()
	defer c.checkMu.Unlock()
	if c.checkStop != nil {
		close(c.checkStop)
		c.checkStop = nil
	}
}

func (c *Conn) runMessageCheck(interval time.Duration, stop chan struct{}) {
	userID, _ := c.identity()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			count, err := c.hub.messages.CountDocuments(ctx, bson.M{"recipientId": userID, "read": false})
			cancel()
			if err != nil {
				zap.S().Warnw("unread message count failed", "userId", userID, "error", err)
				continue
			}
			// only the tab that asked for the check gets the envelope,
			// other open tabs of the same user did not opt in
			if !c.trySend(Envelope{
				Type:    TypeMessageCheck,
				Payload: map[string]interface{}{"unreadCount": count},
			}) {
				zap.S().Debugw("message check dropped", "userId", userID)
			}
		}
	}
}
