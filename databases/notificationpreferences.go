package databases

// go generate: mockery --name NotificationPreferencesDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/models"
)

const notificationPreferencesName = "notificationpreferences"

// NotificationPreferencesDatabase contains the methods to use with the
// notification preferences database
type NotificationPreferencesDatabase interface {
	FindOne(ctx context.Context, filter interface{}) SingleResultHelper
	InsertOne(ctx context.Context, preferences models.NotificationPreferences) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type notificationPreferencesDatabase struct {
	db DatabaseHelper
}

// NewNotificationPreferencesDatabase initializes a new instance of notification preferences database with the provided db connection
func NewNotificationPreferencesDatabase(db DatabaseHelper) NotificationPreferencesDatabase {
	return &notificationPreferencesDatabase{
		db: db,
	}
}

func (np *notificationPreferencesDatabase) FindOne(ctx context.Context, filter interface{}) SingleResultHelper {
	return np.db.Collection(notificationPreferencesName).FindOne(ctx, filter)
}

func (np *notificationPreferencesDatabase) InsertOne(ctx context.Context, preferences models.NotificationPreferences) (InsertOneResultHelper, error) {
	res, err := np.db.Collection(notificationPreferencesName).InsertOne(ctx, preferences)
	return res, err
}

func (np *notificationPreferencesDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return np.db.Collection(notificationPreferencesName).UpdateOne(ctx, filter, update, opts...)
}

func (np *notificationPreferencesDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return np.db.Collection(notificationPreferencesName).DeleteOne(ctx, filter, opts...)
}
