package databases

//go generate: mockery --name FeedbackDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const feedbackCollection = "feedback"

// FeedbackDatabase contains the methods to use with the feedback database
type FeedbackDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Feedback, error)
	InsertOne(ctx context.Context, feedback models.Feedback) (interface{}, error)
}

type feedbackDatabase struct {
	db DatabaseHelper
}

// NewFeedbackDatabase initializes a new instance of feedback database with the provided db connection
func NewFeedbackDatabase(db DatabaseHelper) FeedbackDatabase {
	return &feedbackDatabase{
		db: db,
	}
}

func (c *feedbackDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := c.db.Collection(feedbackCollection).Find(ctx, filter, opts...).Decode(&feedback)
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (c *feedbackDatabase) InsertOne(ctx context.Context, feedback models.Feedback) (interface{}, error) {
	res, err := c.db.Collection(feedbackCollection).InsertOne(ctx, feedback)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}
