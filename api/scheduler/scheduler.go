package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/autoserv-ro/autoserv-api/databases"
)

// StaleTokenAge is how long a push token may go without a refresh
// before the cleanup job deletes it. Tokens are refreshed on every
// register-token call, so anything older belongs to a browser that
// stopped showing up.
const StaleTokenAge = 60 * 24 * time.Hour

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	TokenDB    databases.PushTokenDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(tokenDB databases.PushTokenDatabase, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		TokenDB:    tokenDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Delete stale push tokens daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.CleanupStaleTokens)
	if err != nil {
		zap.S().Errorw("failed to register stale token job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("push token scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("push token scheduler stopped")
}

// CleanupStaleTokens deletes push tokens that have not been refreshed
// in StaleTokenAge. Guarded by a distributed lock so only one instance
// runs it per day.
func (s *Scheduler) CleanupStaleTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "stale_token_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for stale token job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("stale token job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "stale_token_job", s.instanceID)

	cutoff := time.Now().Add(-StaleTokenAge)
	zap.S().Infow("running stale push token cleanup", "instance", s.instanceID, "cutoff", cutoff)

	deleted, err := s.TokenDB.DeleteMany(ctx, bson.M{
		"updatedAt": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
	})
	if err != nil {
		zap.S().Errorw("failed to delete stale push tokens", "error", err)
		return
	}

	zap.S().Infow("stale push token cleanup finished", "deleted", deleted)
}
