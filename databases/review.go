package databases

// go generate: mockery --name ReviewDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoserv-ro/autoserv-api/models"
)

const reviewName = "reviews"

// ReviewDatabase contains the methods to use with the review database
type ReviewDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Review, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Review, error)
	InsertOne(ctx context.Context, review models.Review) (InsertOneResultHelper, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type reviewDatabase struct {
	db DatabaseHelper
}

// NewReviewDatabase initializes a new instance of review database with the provided db connection
func NewReviewDatabase(db DatabaseHelper) ReviewDatabase {
	return &reviewDatabase{
		db: db,
	}
}

func (rv *reviewDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Review, error) {
	review := &models.Review{}
	err := rv.db.Collection(reviewName).FindOne(ctx, filter).Decode(review)
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (rv *reviewDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Review, error) {
	var reviews []models.Review
	cur := rv.db.Collection(reviewName).Find(ctx, filter, opts...)
	err := cur.Decode(&reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (rv *reviewDatabase) InsertOne(ctx context.Context, review models.Review) (InsertOneResultHelper, error) {
	res, err := rv.db.Collection(reviewName).InsertOne(ctx, review)
	return res, err
}

func (rv *reviewDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return rv.db.Collection(reviewName).CountDocuments(ctx, filter, opts...)
}
