package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SchedulerLock holds the structure for the schedulerlocks collection
// in mongo, used so a cron job only runs on one instance at a time.
type SchedulerLock struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	JobName    string             `json:"jobName" bson:"jobName"`
	InstanceID string             `json:"instanceId" bson:"instanceId"`
	ExpiresAt  primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
}
