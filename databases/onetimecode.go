package databases

//go generate: mockery --name OneTimeCodeDatabase

import (
	"context"

	"github.com/fleetdocs/fleetdocs-api/models"
)

const oneTimeCodeCollection = "onetimecodes"

// OneTimeCodeDatabase contains the methods to use with the one-time code database
type OneTimeCodeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.OneTimeCode, error)
	InsertOne(ctx context.Context, code models.OneTimeCode) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}) error
	DeleteMany(ctx context.Context, filter interface{}) error
}

type oneTimeCodeDatabase struct {
	db DatabaseHelper
}

// NewOneTimeCodeDatabase initializes a new instance of one-time code database with the provided db connection
func NewOneTimeCodeDatabase(db DatabaseHelper) OneTimeCodeDatabase {
	return &oneTimeCodeDatabase{
		db: db,
	}
}

func (c *oneTimeCodeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.OneTimeCode, error) {
	code := &models.OneTimeCode{}
	err := c.db.Collection(oneTimeCodeCollection).FindOne(ctx, filter).Decode(&code)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (c *oneTimeCodeDatabase) InsertOne(ctx context.Context, code models.OneTimeCode) (interface{}, error) {
	res, err := c.db.Collection(oneTimeCodeCollection).InsertOne(ctx, code)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *oneTimeCodeDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	_, err := c.db.Collection(oneTimeCodeCollection).DeleteOne(ctx, filter)
	return err
}

func (c *oneTimeCodeDatabase) DeleteMany(ctx context.Context, filter interface{}) error {
	_, err := c.db.Collection(oneTimeCodeCollection).DeleteMany(ctx, filter)
	return err
}
