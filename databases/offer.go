package databases

// go generate: mockery --name OfferDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/models"
)

const offerName = "offers"

// OfferDatabase contains the methods to use with the offer database
type OfferDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Offer, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Offer, error)
	InsertOne(ctx context.Context, offer models.Offer) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type offerDatabase struct {
	db DatabaseHelper
}

// NewOfferDatabase initializes a new instance of offer database with the provided db connection
func NewOfferDatabase(db DatabaseHelper) OfferDatabase {
	return &offerDatabase{
		db: db,
	}
}

func (o *offerDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Offer, error) {
	offer := &models.Offer{}
	err := o.db.Collection(offerName).FindOne(ctx, filter).Decode(offer)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (o *offerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Offer, error) {
	var offers []models.Offer
	cur := o.db.Collection(offerName).Find(ctx, filter, opts...)
	err := cur.Decode(&offers)
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (o *offerDatabase) InsertOne(ctx context.Context, offer models.Offer) (InsertOneResultHelper, error) {
	res, err := o.db.Collection(offerName).InsertOne(ctx, offer)
	return res, err
}

func (o *offerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return o.db.Collection(offerName).UpdateOne(ctx, filter, update, opts...)
}

func (o *offerDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return o.db.Collection(offerName).UpdateMany(ctx, filter, update, opts...)
}
