package databases

// go generate: mockery --name RequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/models"
)

const requestName = "requests"

// RequestDatabase contains the methods to use with the request database
type RequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Request, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Request, error)
	FindPaginated(ctx context.Context, filter interface{}, limit, page int) ([]models.Request, error)
	InsertOne(ctx context.Context, request models.Request) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type requestDatabase struct {
	db DatabaseHelper
}

// NewRequestDatabase initializes a new instance of request database with the provided db connection
func NewRequestDatabase(db DatabaseHelper) RequestDatabase {
	return &requestDatabase{
		db: db,
	}
}

func (rq *requestDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Request, error) {
	request := &models.Request{}
	err := rq.db.Collection(requestName).FindOne(ctx, filter).Decode(request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (rq *requestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Request, error) {
	var requests []models.Request
	cur := rq.db.Collection(requestName).Find(ctx, filter, opts...)
	err := cur.Decode(&requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (rq *requestDatabase) FindPaginated(ctx context.Context, filter interface{}, limit, page int) ([]models.Request, error) {
	return rq.Find(ctx, filter, newMongoPaginate(limit, page).getPaginatedOpts())
}

func (rq *requestDatabase) InsertOne(ctx context.Context, request models.Request) (InsertOneResultHelper, error) {
	res, err := rq.db.Collection(requestName).InsertOne(ctx, request)
	return res, err
}

func (rq *requestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return rq.db.Collection(requestName).UpdateOne(ctx, filter, update, opts...)
}
